package bag

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path"
	"sort"
	"time"

	"github.com/pkg/errors"
)

var ErrUnknownTopic = errors.New("unknown topic")

// jsonlRecord is the wire form of one log line: topic, message-type name,
// timestamp in seconds and the typed payload.
type jsonlRecord struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Time  float64         `json:"time"`
	Data  json.RawMessage `json:"data"`
}

// JSONLSource reads a whole JSON-lines log into memory and serves per-topic
// iterators over it. It implements Source.
type JSONLSource struct {
	registry TypeRegistry
	byTopic  map[string][]Message
	topics   []TopicInfo
	meta     Meta
	dataset  Dataset
}

// OpenJSONL loads the log at p. The registry supplies the runtime decoders
// ResolveType hands out.
func OpenJSONL(p string, registry TypeRegistry) (*JSONLSource, error) {
	file, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open log %s", p)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to stat log %s", p)
	}

	src := &JSONLSource{
		registry: registry,
		byTopic:  make(map[string][]Message),
	}

	types := make(map[string]string)
	var start, end time.Time
	var count uint64

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec jsonlRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, errors.Wrapf(err, "unable to parse log line %d", line)
		}
		stamp := secondsToTime(rec.Time)
		src.byTopic[rec.Topic] = append(src.byTopic[rec.Topic], Message{
			Topic: rec.Topic,
			Type:  rec.Type,
			Time:  stamp,
			Data:  rec.Data,
		})
		types[rec.Topic] = rec.Type
		if start.IsZero() || stamp.Before(start) {
			start = stamp
		}
		if stamp.After(end) {
			end = stamp
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "unable to read log %s", p)
	}

	for topic, msgs := range src.byTopic {
		src.topics = append(src.topics, TopicInfo{
			Name:     topic,
			Type:     types[topic],
			MsgCount: uint64(len(msgs)),
		})
	}
	sort.Slice(src.topics, func(i, j int) bool {
		return src.topics[i].Name < src.topics[j].Name
	})

	src.meta = Meta{
		StartTime: start,
		EndTime:   end,
		Topics:    src.topics,
		Parts: []PartInfo{
			{StartTime: start, EndTime: end, MsgCount: count},
		},
	}
	src.dataset = Dataset{
		Files: []FileInfo{
			{Path: p, Size: uint64(info.Size())},
		},
	}

	return src, nil
}

// Topics lists topics matching pattern and message-type name. The pattern
// "*" matches every topic; anything else goes through path.Match.
func (s *JSONLSource) Topics(pattern, msgType string) ([]TopicInfo, error) {
	var out []TopicInfo
	for _, topic := range s.topics {
		if msgType != "" && topic.Type != msgType {
			continue
		}
		ok, err := matchTopic(pattern, topic.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, topic)
		}
	}

	return out, nil
}

func matchTopic(pattern, name string) (bool, error) {
	if pattern == "" || pattern == "*" {
		return true, nil
	}
	ok, err := path.Match(pattern, name)
	if err != nil {
		return false, errors.Wrapf(err, "bad topic pattern %s", pattern)
	}

	return ok, nil
}

// Messages returns an iterator over the ordered messages of one topic.
func (s *JSONLSource) Messages(_ context.Context, topic string) (Iterator, error) {
	msgs, ok := s.byTopic[topic]
	if !ok {
		return nil, errors.Wrap(ErrUnknownTopic, topic)
	}

	return &sliceIterator{msgs: msgs}, nil
}

// ResolveType resolves a runtime decoder by message-type name.
func (s *JSONLSource) ResolveType(name string) (Decoder, bool) {
	dec, ok := s.registry[name]

	return dec, ok
}

func (s *JSONLSource) Meta() Meta {
	return s.meta
}

func (s *JSONLSource) Dataset() Dataset {
	return s.dataset
}

type sliceIterator struct {
	msgs []Message
	idx  int
}

func (it *sliceIterator) Next(ctx context.Context) (Message, bool, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, false, err
	}
	if it.idx >= len(it.msgs) {
		return Message{}, false, nil
	}
	msg := it.msgs[it.idx]
	it.idx++

	return msg, true, nil
}

func secondsToTime(sec float64) time.Time {
	return time.Unix(0, int64(sec*float64(time.Second))).UTC()
}
