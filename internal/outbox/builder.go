// internal/outbox/builder.go
package outbox

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	cfg "github.com/tamzrod/coolboard-agent/internal/config"
)

func Build(oc cfg.OutboxConfig, boardID string) (Outbox, error) {
	switch oc.Driver {
	case cfg.OutboxFile:
		return NewFile(oc.Dir, oc.MaxEntries), nil
	case cfg.OutboxRedis:
		rdb := redis.NewClient(&redis.Options{Addr: oc.RedisAddr})
		return NewRedis(rdb, boardID, oc.MaxEntries), nil
	case cfg.OutboxNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("outbox: unsupported driver %q", oc.Driver)
	}
}
