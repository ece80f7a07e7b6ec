// Copyright 2025 The fawa Authors
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

package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fawa-io/savebridge/pkg/fwlog"
	"github.com/fawa-io/savebridge/pkg/notify"
	"github.com/fawa-io/savebridge/pkg/storage"
)

const (
	// FileDownloadServiceName is the structured plugin surface.
	FileDownloadServiceName = "polarjoin.bridge.v1.FileDownloadService"
	// AndroidWebViewServiceName is the legacy positional surface.
	AndroidWebViewServiceName = "polarjoin.bridge.v1.AndroidWebView"

	FileDownloadServiceSaveFileProcedure = "/" + FileDownloadServiceName + "/SaveFile"
	AndroidWebViewSaveFileProcedure      = "/" + AndroidWebViewServiceName + "/SaveFile"

	requestIDHeader = "X-Request-Id"
)

var errRequiredFields = errors.New("fileName and content are required")

// Saver is the shared resolve-and-write step both surfaces delegate to.
type Saver interface {
	Save(ctx context.Context, req storage.SaveRequest) (storage.SaveResult, error)
}

// Handler serves both call surfaces on top of one Saver. The surfaces only
// differ in how arguments arrive and how results and failures are reported.
type Handler struct {
	saver    Saver
	notifier notify.Notifier
}

// NewHandler returns a Handler. A nil notifier sends notifications to the log.
func NewHandler(saver Saver, notifier notify.Notifier) *Handler {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Handler{saver: saver, notifier: notifier}
}

// SaveFile handles the structured call. fileName and content are required;
// mimeType defaults to text/csv. A missing field is rejected before the
// filesystem is touched.
func (h *Handler) SaveFile(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()
	fileName, okName := stringField(fields, "fileName")
	content, okContent := stringField(fields, "content")
	if !okName || !okContent {
		return nil, connect.NewError(connect.CodeInvalidArgument, errRequiredFields)
	}
	mimeType, ok := stringField(fields, "mimeType")
	if !ok || mimeType == "" {
		mimeType = storage.DefaultMimeType
	}

	result, err := h.saver.Save(ctx, storage.SaveRequest{
		ID:       requestID(req.Header()),
		FileName: fileName,
		Content:  content,
		MimeType: mimeType,
	})
	if err != nil {
		if storage.IsValidation(err) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("error saving file: %w", err))
	}

	msg, err := structpb.NewStruct(map[string]any{
		"filePath": result.AbsolutePath,
		"success":  result.Success,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	res := connect.NewResponse(msg)
	res.Header().Set("Bridge-Version", "v1")
	return res, nil
}

// LegacySaveFile handles the positional call: a list of [fileName, content].
// It never fails; a failed save answers null and the reason goes out as a
// notification.
func (h *Handler) LegacySaveFile(
	ctx context.Context,
	req *connect.Request[structpb.ListValue],
) (*connect.Response[structpb.Value], error) {
	args := req.Msg.GetValues()
	fileName := stringArg(args, 0)
	content := stringArg(args, 1)

	path, ok := h.legacySave(ctx, requestID(req.Header()), fileName, content)
	if !ok {
		return connect.NewResponse(structpb.NewNullValue()), nil
	}
	return connect.NewResponse(structpb.NewStringValue(path)), nil
}

// SaveFileLegacy is the in-process form of the legacy call. It returns the
// absolute path and true on success, or "" and false after notifying.
func (h *Handler) SaveFileLegacy(ctx context.Context, fileName, content string) (string, bool) {
	return h.legacySave(ctx, uuid.NewString(), &fileName, &content)
}

func (h *Handler) legacySave(ctx context.Context, id string, fileName, content *string) (string, bool) {
	if fileName == nil || content == nil {
		h.notify(ctx, notify.Notification{
			RequestID: id,
			Level:     notify.LevelError,
			Message:   "Error saving file: " + errRequiredFields.Error(),
		})
		return "", false
	}

	result, err := h.saver.Save(ctx, storage.SaveRequest{
		ID:       id,
		FileName: *fileName,
		Content:  *content,
		MimeType: storage.DefaultMimeType,
	})
	if err != nil {
		h.notify(ctx, notify.Notification{
			RequestID: id,
			Level:     notify.LevelError,
			Message:   "Error saving file: " + err.Error(),
		})
		return "", false
	}

	h.notify(ctx, notify.Notification{
		RequestID: id,
		Level:     notify.LevelInfo,
		Message:   "File saved to: " + result.AbsolutePath,
		FilePath:  result.AbsolutePath,
	})
	return result.AbsolutePath, true
}

func (h *Handler) notify(ctx context.Context, n notify.Notification) {
	if err := h.notifier.Notify(ctx, n); err != nil {
		fwlog.Warnf("[%s] failed to deliver notification: %v", n.RequestID, err)
	}
}

// NewFileDownloadServiceHandler builds an HTTP handler for the structured
// surface. It returns the path prefix to mount it on.
func NewFileDownloadServiceHandler(h *Handler, opts ...connect.HandlerOption) (string, http.Handler) {
	saveFile := connect.NewUnaryHandler(
		FileDownloadServiceSaveFileProcedure,
		h.SaveFile,
		connect.WithHandlerOptions(opts...),
	)
	return "/" + FileDownloadServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case FileDownloadServiceSaveFileProcedure:
			saveFile.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// NewAndroidWebViewHandler builds an HTTP handler for the legacy surface.
func NewAndroidWebViewHandler(h *Handler, opts ...connect.HandlerOption) (string, http.Handler) {
	saveFile := connect.NewUnaryHandler(
		AndroidWebViewSaveFileProcedure,
		h.LegacySaveFile,
		connect.WithHandlerOptions(opts...),
	)
	return "/" + AndroidWebViewServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AndroidWebViewSaveFileProcedure:
			saveFile.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// Mount registers both surfaces on mux.
func Mount(mux *http.ServeMux, h *Handler, opts ...connect.HandlerOption) {
	mux.Handle(NewFileDownloadServiceHandler(h, opts...))
	mux.Handle(NewAndroidWebViewHandler(h, opts...))
}

// stringField reports a string field; absent, null or non-string values
// count as missing.
func stringField(fields map[string]*structpb.Value, name string) (string, bool) {
	v, ok := fields[name]
	if !ok {
		return "", false
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", false
	}
	return s.StringValue, true
}

func stringArg(args []*structpb.Value, i int) *string {
	if i >= len(args) {
		return nil
	}
	s, ok := args[i].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil
	}
	return &s.StringValue
}

func requestID(h http.Header) string {
	if id := h.Get(requestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}
