package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesainslie/unfolder/pkg/unfolder/fold"
)

func TestProgress(t *testing.T) {
	events := []fold.Event{
		{Kind: fold.EventFileMoved, From: "/r/a/b/x.txt", To: "/r/a-b-x.txt"},
		{Kind: fold.EventDirRemoved, Path: "/r/a/b"},
		{Kind: fold.EventDirCreated, Path: "/r/c"},
		{Kind: fold.EventFileMissing, Path: "/r/c-y.txt"},
	}

	tests := []struct {
		verbosity int
		want      []string
		wantNot   []string
	}{
		{verbosity: 0, wantNot: []string{"->", "a/b/", "c/", "not restored"}},
		{verbosity: 1, want: []string{"- a/b/", "+ c/", "! c-y.txt not restored"}, wantNot: []string{"->"}},
		{verbosity: 2, want: []string{"a/b/x.txt -> a-b-x.txt", "- a/b/", "+ c/", "not restored"}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		p := newProgress(&buf, "/r", tt.verbosity)
		for _, e := range events {
			p.OnEvent(e)
		}

		assert.Equal(t, 1, p.moves)
		for _, s := range tt.want {
			assert.Contains(t, buf.String(), s, "verbosity %d", tt.verbosity)
		}
		for _, s := range tt.wantNot {
			assert.NotContains(t, buf.String(), s, "verbosity %d", tt.verbosity)
		}
	}
}

func TestProgress_PathsOutsideRoot(t *testing.T) {
	p := newProgress(&bytes.Buffer{}, "/r", 2)
	assert.Equal(t, "/elsewhere/x", p.rel("/elsewhere/x"))
	assert.Equal(t, "a-x", p.rel("a-x"))
	assert.Equal(t, "a/x", p.rel("/r/a/x"))
}
