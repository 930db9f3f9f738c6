/**
* Copyright 2020 MonetDB Solutions B.V.
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

package mapi

import (
	"context"
	"encoding/binary"
	"net"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/MonetDB/mapi-go/handshake"
	"github.com/MonetDB/mapi-go/internal/log"
	"github.com/MonetDB/mapi-go/internal/metrics"
	"github.com/MonetDB/mapi-go/internal/tracing"
	"github.com/MonetDB/mapi-go/msettings"
	"github.com/MonetDB/mapi-go/protocol"
	"github.com/MonetDB/mapi-go/transport"
)

// localBigEndian reports this process's native byte order, used to fill
// the ENDIAN field of the login reply.
func localBigEndian() bool {
	var x uint16 = 1
	buf := make([]byte, 2)
	binary.NativeEndian.PutUint16(buf, x)
	return buf[0] == 0
}

// EndpointCache is the optional endpoint-memory collaborator consulted
// before a Unix-socket scan. A nil cache disables the feature entirely;
// connection outcomes never depend on it, only the number of candidates
// probed before the first success.
type EndpointCache interface {
	Lookup(key string) (candidate string, ok bool)
	Remember(key, candidate string)
	Forget(key string)
}

// ConnectOptions configures Connect beyond what Settings itself carries.
type ConnectOptions struct {
	Cache EndpointCache
}

// Connect establishes a session: candidate-endpoint discovery, transport
// selection, and the v9 handshake, following redirects until the welcome
// result carries none. s must already validate; Connect calls
// Validate again defensively since a merovingian restart or redirect may
// have mutated it.
func Connect(ctx context.Context, s *msettings.Settings, opts ConnectOptions) (*Session, error) {
	ctx, span := tracing.StartSpan(ctx, tracing.SpanConnect)
	defer span.End()
	start := time.Now()

	sess, err := connect(ctx, s, opts)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		log.Error("connect failed", log.Pairs{"error": err.Error()})
	}
	metrics.ConnectDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return sess, err
}

func connect(ctx context.Context, s *msettings.Settings, opts ConnectOptions) (*Session, error) {
	redircnt := 0
	for {
		if err := s.Validate(); err != nil {
			return nil, err
		}

		conn, cacheKey, transportKind, err := dialTransport(ctx, s, opts.Cache)
		if err != nil {
			metrics.ConnectTotal.WithLabelValues(transportKind, "failure").Inc()
			if opts.Cache != nil && cacheKey != "" {
				opts.Cache.Forget(cacheKey)
			}
			return nil, err
		}

		stream := protocol.NewConn(conn)
		_, hspan := tracing.StartSpan(ctx, tracing.SpanHandshake)
		result, err := handshake.Login(stream, s, &redircnt, localBigEndian())
		hspan.End()
		if err != nil {
			stream.Close()
			metrics.ConnectTotal.WithLabelValues(transportKind, "failure").Inc()
			if redirect, ok := err.(*handshake.Redirect); ok {
				metrics.HandshakeRedirectsTotal.Inc()
				if perr := msettings.ParseURL(s, redirect.RedirectURL); perr != nil {
					return nil, perr
				}
				continue
			}
			return nil, err
		}
		metrics.ConnectTotal.WithLabelValues(transportKind, "success").Inc()

		if opts.Cache != nil && cacheKey != "" {
			opts.Cache.Remember(cacheKey, s.ConnectUnix())
		}

		sess := &Session{
			id:               nextSessionID(),
			settings:         s,
			stream:           stream,
			motd:             result.MOTD,
			handshakeOptions: result.HandshakeOptions,
			oobIntr:          result.OOBInterrupt,
			connected:        true,
			sizeHeader:       false,
			columnarProtocol: false,
		}
		if path := s.GetString(msettings.LogFile); path != "" {
			sess.EnableWireLog(&lumberjack.Logger{Filename: path})
		}
		log.Info("session established", log.Pairs{"id": sess.id, "transport": transportKind})
		return sess, nil
	}
}

// dialTransport performs candidate-endpoint discovery and transport
// selection, consulting the optional endpoint cache first.
// transportKind labels the outcome for metrics ("unix", "tcp", "tls").
func dialTransport(ctx context.Context, s *msettings.Settings, cache EndpointCache) (conn net.Conn, cacheKey, transportKind string, err error) {
	cacheKey = s.GetString(msettings.Host) + "/" + s.GetString(msettings.Database)

	if cache != nil {
		if candidate, ok := cache.Lookup(cacheKey); ok && candidate != "" {
			if c, err := transport.ConnectUnix(candidate); err == nil {
				return c, cacheKey, "unix", nil
			}
			cache.Forget(cacheKey)
		}
	}

	if s.ConnectScan() {
		candidates, scanErr := transport.ScanUnixSockets(s.GetString(msettings.Sockdir))
		if scanErr == nil {
			for _, cand := range candidates {
				clone := s.Clone()
				clone.SetLong(msettings.Port, int64(cand.Port))
				if verr := clone.Validate(); verr != nil {
					continue
				}
				if c, derr := transport.ConnectUnix(cand.Path); derr == nil {
					*s = *clone
					return c, cacheKey, "unix", nil
				}
			}
		}
		// exhausted: fall back to host=localhost and TCP.
		s.SetString(msettings.Host, "localhost")
	}

	if unixPath := s.ConnectUnix(); unixPath != "" {
		c, derr := transport.ConnectUnix(unixPath)
		if derr != nil {
			return nil, cacheKey, "unix", derr
		}
		return c, cacheKey, "unix", nil
	}

	timeout := time.Duration(s.GetLong(msettings.ConnectTimeout)) * time.Millisecond
	c, derr := transport.ConnectTCP(ctx, s.ConnectTCP(), s.ConnectPort(), timeout)
	if derr != nil {
		return nil, cacheKey, "tcp", derr
	}
	if s.GetBool(msettings.TLS) {
		tlsConn, terr := transport.WrapTLS(c, transport.TLSOptions{
			Verify:         s.ConnectTLSVerify(),
			ServerName:     s.ConnectTCP(),
			CAFile:         s.GetString(msettings.Cert),
			CertHashDigits: s.ConnectCertHashDigits(),
			ClientKeyFile:  s.ConnectClientKey(),
			ClientCertFile: s.ConnectClientCert(),
		})
		if terr != nil {
			return nil, cacheKey, "tls", terr
		}
		return tlsConn, cacheKey, "tls", nil
	}
	return c, cacheKey, "tcp", nil
}
