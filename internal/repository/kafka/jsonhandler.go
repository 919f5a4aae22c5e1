package kafka

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// JSONHandler decodes each payload into T before handing it on. A
// payload that does not decode is logged and committed: redelivering it
// can never succeed, so keeping it uncommitted would wedge the
// partition.
func JSONHandler[T any](log *zap.Logger, handle func(context.Context, []byte, T) error) Handler {
	return func(ctx context.Context, key, value []byte) error {
		var v T
		if err := json.Unmarshal(value, &v); err != nil {
			log.Warn("undecodable payload dropped", zap.Error(err), zap.Int("value_len", len(value)))
			return nil
		}
		return handle(ctx, key, v)
	}
}
