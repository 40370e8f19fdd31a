package kafka

import "github.com/segmentio/kafka-go"

const (
	headerContentType = "content-type"
	headerEventType   = "event-type"
	headerTrigger     = "trigger"
)

// messageHeaders is a propagation.TextMapCarrier over the message headers,
// kept in insertion order.
type messageHeaders []kafka.Header

func (h messageHeaders) Get(k string) string {
	for _, x := range h {
		if x.Key == k {
			return string(x.Value)
		}
	}
	return ""
}

// Set replaces an existing key instead of adding a duplicate header.
func (h *messageHeaders) Set(k, v string) {
	for i := range *h {
		if (*h)[i].Key == k {
			(*h)[i].Value = []byte(v)
			return
		}
	}
	*h = append(*h, kafka.Header{Key: k, Value: []byte(v)})
}

func (h messageHeaders) Keys() []string {
	ks := make([]string, 0, len(h))
	for _, x := range h {
		ks = append(ks, x.Key)
	}
	return ks
}
