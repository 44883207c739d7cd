// Package bag abstracts the recorded sensor log a graph reads from: topic
// discovery, per-topic message streams and runtime message-type resolution.
// Decoder backends for concrete log formats live behind the Source
// interface; the package ships a JSON-lines implementation.
package bag

import (
	"context"
	"time"
)

// Message is one timestamped record read from a topic of a recorded log.
// The payload stays opaque until a Decoder resolved for the message type
// turns it into a typed record.
type Message struct {
	Topic string
	Type  string
	Time  time.Time
	Data  []byte
}

// TopicInfo describes one topic of a recorded log.
type TopicInfo struct {
	Name     string
	Type     string
	MsgCount uint64
}

// FileInfo describes one file of a dataset.
type FileInfo struct {
	Path string
	Size uint64
}

// Dataset lists the files a recording consists of.
type Dataset struct {
	Files []FileInfo
}

// PartInfo holds per-file recording bounds, aligned with Dataset.Files.
type PartInfo struct {
	StartTime time.Time
	EndTime   time.Time
	MsgCount  uint64
}

// Meta summarizes a recording.
type Meta struct {
	StartTime time.Time
	EndTime   time.Time
	Topics    []TopicInfo
	Parts     []PartInfo
}

// Duration is the recorded time span.
func (m Meta) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// Duration of a single part.
func (p PartInfo) Duration() time.Duration {
	return p.EndTime.Sub(p.StartTime)
}

// Decoder turns a message payload into its typed record.
type Decoder func(data []byte) (any, error)

// TypeRegistry resolves runtime decoders by message-type name.
type TypeRegistry map[string]Decoder

// Iterator walks the ordered messages of one topic.
type Iterator interface {
	// Next returns the next message; ok is false at the end of the topic.
	Next(ctx context.Context) (msg Message, ok bool, err error)
}

// Source exposes a recorded log: topics filterable by pattern and
// message-type name, ordered per-topic message iterators, and runtime type
// resolution. A type absent from the source is not an error; the caller
// decides how to treat an unresolvable schema.
type Source interface {
	Topics(pattern, msgType string) ([]TopicInfo, error)
	Messages(ctx context.Context, topic string) (Iterator, error)
	ResolveType(name string) (Decoder, bool)
	Meta() Meta
	Dataset() Dataset
}
