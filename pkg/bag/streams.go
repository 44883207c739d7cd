package bag

import (
	"context"

	"github.com/rovlab/go-dataflow/pkg/dataflow"
)

// TopicStream bundles what a per-topic node instance needs: the topic, the
// decoder resolved for its message type (nil if the schema is unknown to the
// source) and the message stream itself.
type TopicStream struct {
	Topic  TopicInfo
	Decode Decoder
	Msgs   *dataflow.Stream[Message]
}

// Streams adds one reader node per topic matching pattern and msgType. Each
// instance stream is headered with its topic name and carries the topic's
// messages in recorded order. This is the usual feed for foreach-expanded
// extractor nodes.
func Streams(g *dataflow.Graph, name string, src Source, pattern, msgType string) ([]TopicStream, error) {
	topics, err := src.Topics(pattern, msgType)
	if err != nil {
		return nil, err
	}

	outs, err := dataflow.AddForeach(g, name, topics,
		func(topic TopicInfo) string { return topic.Name },
		func(ctx context.Context, p *dataflow.Proc[Message], topic TopicInfo) error {
			if err := p.SetHeader(dataflow.Header{Title: topic.Name}); err != nil {
				return err
			}
			it, err := src.Messages(ctx, topic.Name)
			if err != nil {
				return err
			}
			for {
				msg, ok, err := it.Next(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := p.Push(ctx, msg); err != nil {
					return err
				}
			}
		})
	if err != nil {
		return nil, err
	}

	streams := make([]TopicStream, len(topics))
	for i, topic := range topics {
		dec, _ := src.ResolveType(topic.Type)
		streams[i] = TopicStream{Topic: topic, Decode: dec, Msgs: outs[i]}
	}

	return streams, nil
}
