// Package journal keeps a persistent history of unfold, refold and
// abandon runs in a badger database.
package journal

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"
)

// Operation names the kind of run a record describes.
type Operation string

// Operations recorded by the CLI.
const (
	OpUnfold  Operation = "unfold"
	OpRefold  Operation = "refold"
	OpAbandon Operation = "abandon"
)

// Record describes one run against a root.
type Record struct {
	ID        string        `json:"id" yaml:"id"`
	Time      time.Time     `json:"time" yaml:"time"`
	Operation Operation     `json:"operation" yaml:"operation"`
	Root      string        `json:"root" yaml:"root"`
	Absolute  bool          `json:"absolute" yaml:"absolute"`
	Strategy  string        `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Files     int           `json:"files" yaml:"files"`
	Missing   int           `json:"missing" yaml:"missing"`
	Bytes     int64         `json:"bytes" yaml:"bytes"`
	Complete  bool          `json:"complete" yaml:"complete"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Failed reports whether the run ended with an error.
func (r *Record) Failed() bool {
	return r.Error != ""
}

func (r *Record) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Record) decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(r)
}

// Key layout:
//
//	r\x00<unix nanos, 20 digits>\x00<id>  -> gob Record
//	i\x00<id>                             -> record key
//
// Zero-padded timestamps keep records in time order under badger's
// lexicographic iteration.
const (
	recordPrefix = "r\x00"
	indexPrefix  = "i\x00"
)

func recordKey(t time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d\x00%s", recordPrefix, t.UnixNano(), id))
}

// recordID returns the ID at the end of a record key.
func recordID(key []byte) string {
	return string(key[bytes.LastIndexByte(key, 0)+1:])
}

func indexKey(id string) []byte {
	return []byte(indexPrefix + id)
}
