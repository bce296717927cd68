package viewer

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/SAP-F-2025/assessment-review/internal/utils"
)

// Transport is a pub/sub usable in both directions.
type Transport interface {
	message.Publisher
	message.Subscriber
}

// NewGoChannelTransport creates an in-process transport, for a viewer that
// runs in the same process (an embedding UI shell, tests).
//
// Publishing never waits for the viewer to ack: outbound events are
// published from inside a session turn and the viewer may need a turn of its
// own to answer.
func NewGoChannelTransport(buffer int64, persistent bool, logger utils.Logger) *gochannel.GoChannel {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: buffer,
			Persistent:          persistent,
		},
		watermill.NewSlogLogger(utils.ToSlogLogger(logger)),
	)
}
