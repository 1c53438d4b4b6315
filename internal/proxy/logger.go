package proxy

import (
	"context"
	"fmt"
	"strings"

	"github.com/bool64/ctxd"
	"github.com/golang/glog"
)

// debugLevel is glog verbosity that enables debug messages.
const debugLevel = glog.Level(2)

// GlogLogger sends ctxd messages to glog.
type GlogLogger struct{}

var _ ctxd.Logger = GlogLogger{}

// Debug logs a message when glog verbosity is at least 2.
func (GlogLogger) Debug(_ context.Context, msg string, keysAndValues ...interface{}) {
	if glog.V(debugLevel) {
		glog.InfoDepth(1, format(msg, keysAndValues))
	}
}

// Info logs a message.
func (GlogLogger) Info(_ context.Context, msg string, keysAndValues ...interface{}) {
	glog.InfoDepth(1, format(msg, keysAndValues))
}

// Important logs a message.
func (GlogLogger) Important(_ context.Context, msg string, keysAndValues ...interface{}) {
	glog.InfoDepth(1, format(msg, keysAndValues))
}

// Warn logs a message with warning severity.
func (GlogLogger) Warn(_ context.Context, msg string, keysAndValues ...interface{}) {
	glog.WarningDepth(1, format(msg, keysAndValues))
}

// Error logs a message with error severity.
func (GlogLogger) Error(_ context.Context, msg string, keysAndValues ...interface{}) {
	glog.ErrorDepth(1, format(msg, keysAndValues))
}

// format renders message with key-value pairs as msg {"k1":v1,"k2":v2}.
func format(msg string, keysAndValues []interface{}) string {
	if len(keysAndValues) == 0 {
		return msg
	}

	b := strings.Builder{}
	b.WriteString(msg)
	b.WriteString(" {")

	for i := 0; i < len(keysAndValues); i += 2 {
		if i > 0 {
			b.WriteString(",")
		}

		_, _ = fmt.Fprintf(&b, "%q:", fmt.Sprint(keysAndValues[i]))

		if i+1 >= len(keysAndValues) {
			b.WriteString("null")

			continue
		}

		switch v := keysAndValues[i+1].(type) {
		case error:
			_, _ = fmt.Fprintf(&b, "%q", v.Error())
		case string, fmt.Stringer:
			_, _ = fmt.Fprintf(&b, "%q", fmt.Sprint(v))
		default:
			_, _ = fmt.Fprintf(&b, "%v", v)
		}
	}

	b.WriteString("}")

	return b.String()
}
