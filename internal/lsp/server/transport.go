// Copyright 2025 The Candid LS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sourcegraph/jsonrpc2"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// concurrentMethods are the requests answered off the read loop. They
// only read published snapshots, so their order relative to later
// messages does not matter once they have synced with the actor.
var concurrentMethods = map[string]bool{
	protocol.MethodTextDocumentHover:          true,
	protocol.MethodTextDocumentDefinition:     true,
	protocol.MethodTextDocumentDocumentSymbol: true,
}

// rpcHandler dispatches the messages of one connection.
//
// Notifications, and requests that change server state, run on the
// connection's read loop in the order they arrive. A completion request
// issues its job on the read loop, so a later request for the same
// document always supersedes an earlier one, and waits for the job on its
// own goroutine so the read loop moves on to the next message.
type rpcHandler struct {
	server   *Server
	protocol *protocol.Handler
}

// Serve answers the protocol on stream until the client disconnects or
// ctx is done.
func (s *Server) Serve(ctx context.Context, stream io.ReadWriteCloser) error {
	h := &rpcHandler{server: s, protocol: s.Handler()}
	var opts []jsonrpc2.ConnOpt
	if s.debug {
		opts = append(opts, jsonrpc2.LogMessages(rpcLogger{commonlog.GetLogger(Name + ".rpc")}))
	}
	conn := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(stream, jsonrpc2.VSCodeObjectCodec{}), h, opts...)
	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		conn.Close()
	}
	return nil
}

// Handle implements [jsonrpc2.Handler].
func (h *rpcHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	switch {
	case req.Method == protocol.MethodTextDocumentCompletion && !req.Notif:
		h.completion(ctx, conn, req)
	case concurrentMethods[req.Method] && !req.Notif:
		go func() {
			result, err := h.dispatch(ctx, conn, req)
			h.reply(ctx, conn, req, result, err)
		}()
	default:
		result, err := h.dispatch(ctx, conn, req)
		h.reply(ctx, conn, req, result, err)
		if req.Method == protocol.MethodExit {
			conn.Close()
		}
	}
}

func (h *rpcHandler) completion(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if !h.protocol.IsInitialized() {
		h.reply(ctx, conn, req, nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidRequest,
			Message: "server not initialized",
		})
		return
	}
	var params protocol.CompletionParams
	if err := json.Unmarshal(rawParams(req), &params); err != nil {
		h.reply(ctx, conn, req, nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: err.Error(),
		})
		return
	}
	job, err := h.server.issueCompletion(&params)
	if job == nil || err != nil {
		h.reply(ctx, conn, req, nil, err)
		return
	}
	go func() {
		result, err := h.server.completionResult(job)
		h.reply(ctx, conn, req, result, err)
	}()
}

// dispatch runs the protocol handler for req, mapping its outcome to
// JSON-RPC errors the way glsp's own server does.
func (h *rpcHandler) dispatch(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	gctx := &glsp.Context{
		Method: req.Method,
		Params: rawParams(req),
		Notify: func(method string, params any) {
			if err := conn.Notify(ctx, method, params); err != nil {
				h.server.logger.Warn().Err(err).Str("method", method).Msg("cannot send notification")
			}
		},
		Call: func(method string, params any, result any) {
			if err := conn.Call(ctx, method, params, result); err != nil {
				h.server.logger.Warn().Err(err).Str("method", method).Msg("call to client failed")
			}
		},
	}
	result, validMethod, validParams, err := h.protocol.Handle(gctx)
	switch {
	case !validMethod:
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("method not supported: %s", req.Method),
		}
	case !validParams:
		e := &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
		if err != nil {
			e.Message = err.Error()
		}
		return nil, e
	case err != nil:
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidRequest,
			Message: err.Error(),
		}
	}
	return result, nil
}

// reply sends the response to req. Notifications get none; a failed
// notification is logged.
func (h *rpcHandler) reply(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, result any, err error) {
	if req.Notif {
		if err != nil {
			h.server.logger.Error().Err(err).Str("method", req.Method).Msg("notification failed")
		}
		return
	}
	resp := &jsonrpc2.Response{ID: req.ID}
	if err == nil {
		err = resp.SetResult(result)
	}
	if err != nil {
		e, ok := err.(*jsonrpc2.Error)
		if !ok {
			e = &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
		}
		resp.Error = e
	}
	if err := conn.SendResponse(ctx, resp); err != nil && err != jsonrpc2.ErrClosed {
		h.server.logger.Warn().Err(err).Str("method", req.Method).Msg("cannot send response")
	}
}

func rawParams(req *jsonrpc2.Request) json.RawMessage {
	if req.Params == nil {
		return nil
	}
	return *req.Params
}

// rpcLogger writes the JSON-RPC message log to the transport logger.
type rpcLogger struct {
	log commonlog.Logger
}

func (l rpcLogger) Printf(format string, v ...any) {
	l.log.Debugf(strings.TrimSuffix(format, "\n"), v...)
}

// stdio is standard input and output as one stream.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdio) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
