package cache

import (
	"crypto/tls"
	"sync"

	"lunarcms/internal/config"

	"github.com/valkey-io/valkey-go"
)

// Connections identify themselves so key cache and counter traffic is
// attributable on the valkey side.
const clientName = "lunarcms"

var (
	clientOnce sync.Once
	client     valkey.Client
)

// GetCache returns the process-wide valkey client shared by the key
// validation cache, the rate limit counters and the monitoring metrics.
func GetCache() valkey.Client {
	clientOnce.Do(func() {
		env := config.GetEnv()

		options := valkey.ClientOption{
			InitAddress: []string{env.ValkeyHost + ":" + env.ValkeyPort},
			Password:    env.ValkeyPassword,
			Username:    env.ValkeyUsername,
			ClientName:  clientName,
		}

		if env.ValkeyIsSsl {
			options.TLSConfig = &tls.Config{
				ServerName: env.ValkeyHost,
			}
		}

		created, err := valkey.NewClient(options)
		if err != nil {
			panic(err)
		}

		client = created
	})

	return client
}
