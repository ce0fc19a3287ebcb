package restyutil

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type InstrumentOutput interface {
	Write(id string, contents string)
}

type instrumentCtx struct {
	prefix    string
	output    InstrumentOutput
	idcounter *uint64
}

// InstrumentClient writes every request/response pair that goes through
// `client` to `output`, `output` can be nil, in which case this is a no-op.
func InstrumentClient(client *resty.Client, prefix string, output InstrumentOutput) {
	if output == nil {
		return
	}
	var idcounter uint64
	i := instrumentCtx{prefix: prefix, output: output, idcounter: &idcounter}
	client.OnAfterResponse(i.onAfterResponse)
}

func (i instrumentCtx) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	id := atomic.AddUint64(i.idcounter, 1)
	messageId := fmt.Sprintf("%s%03d.txt", i.prefix, id)
	i.output.Write(messageId, formatHttpMessage(res))
	slog.DebugContext(
		res.Request.Context(), "wrote http message",
		"method", res.Request.Method,
		"url", res.Request.URL,
		"message_id", messageId,
	)
	return nil
}
