// internal/sensor/static.go
package sensor

import "context"

// Static always reads the same value. Bench and simulation use.
type Static float64

func (s Static) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return float64(s), nil
}
