// Package database contains what the job store implementations share:
// record encoding and state filtering.
package database

import (
	"github.com/galaxyproject/gxrunner/job"
	"github.com/ugorji/go/codec"
)

var handle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	return h
}()

// Marshal encodes a job record as msgpack.
func Marshal(r *job.Record) ([]byte, error) {
	var b []byte
	err := codec.NewEncoderBytes(&b, handle).Encode(r)
	return b, err
}

// Unmarshal decodes a msgpack encoded job record.
func Unmarshal(b []byte) (*job.Record, error) {
	r := &job.Record{}
	err := codec.NewDecoderBytes(b, handle).Decode(r)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// StateFilter returns a predicate matching any of the given states, or
// every state if none are given.
func StateFilter(states ...job.State) func(job.State) bool {
	if len(states) == 0 {
		return func(job.State) bool { return true }
	}
	set := make(map[job.State]bool, len(states))
	for _, s := range states {
		set[s] = true
	}
	return func(s job.State) bool { return set[s] }
}
