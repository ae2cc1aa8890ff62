// Copyright (c) 2025 NORT
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

func parseRedis(raw string) (*Info, error) {
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, parseError(KindRedis, err.Error(), "format should be redis://[user:password@]host:port/db")
	}
	host, port, err := net.SplitHostPort(opts.Addr)
	if err != nil {
		return nil, parseError(KindRedis, "invalid address "+opts.Addr, "")
	}
	info := &Info{
		Kind:     KindRedis,
		Host:     host,
		Port:     port,
		User:     opts.Username,
		Password: opts.Password,
		Database: strconv.Itoa(opts.DB),
		Params:   map[string]string{},
		Original: raw,
	}
	if opts.TLSConfig != nil {
		info.Params["tls"] = "true"
	}
	return info, nil
}

func isRedisScheme(lower string) bool {
	return strings.HasPrefix(lower, "redis://") || strings.HasPrefix(lower, "rediss://")
}
