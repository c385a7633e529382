package postgresql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDSN(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name:   "plain values",
			config: Config{Host: "db", Port: 5432, User: "onmydesk", Password: "secret", Database: "reports", SSLMode: "require"},
			want:   `host='db' port=5432 user='onmydesk' password='secret' dbname='reports' sslmode='require'`,
		},
		{
			name:   "quotes and spaces are escaped",
			config: Config{Host: "db", Port: 5433, User: "u", Password: `it's a \secret`, Database: "r"},
			want:   `host='db' port=5433 user='u' password='it\'s a \\secret' dbname='r' sslmode='disable'`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.DSN())
		})
	}
}
