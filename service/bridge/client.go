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

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls both surfaces of a bridge server.
type Client struct {
	saveFile       *connect.Client[structpb.Struct, structpb.Struct]
	legacySaveFile *connect.Client[structpb.ListValue, structpb.Value]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		saveFile: connect.NewClient[structpb.Struct, structpb.Struct](
			httpClient,
			baseURL+FileDownloadServiceSaveFileProcedure,
			opts...,
		),
		legacySaveFile: connect.NewClient[structpb.ListValue, structpb.Value](
			httpClient,
			baseURL+AndroidWebViewSaveFileProcedure,
			opts...,
		),
	}
}

// SaveFile makes a structured call and returns the saved file's path.
// An empty mimeType is left for the server to default.
func (c *Client) SaveFile(ctx context.Context, fileName, content, mimeType string) (string, error) {
	fields := map[string]any{
		"fileName": fileName,
		"content":  content,
	}
	if mimeType != "" {
		fields["mimeType"] = mimeType
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return "", err
	}

	res, err := c.saveFile.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return "", err
	}
	path, ok := stringField(res.Msg.GetFields(), "filePath")
	if !ok || !res.Msg.GetFields()["success"].GetBoolValue() {
		return "", errors.New("bridge answered without a file path")
	}
	return path, nil
}

// SaveFileLegacy makes a legacy call. It returns ok=false when the server
// answered null.
func (c *Client) SaveFileLegacy(ctx context.Context, fileName, content string) (path string, ok bool, err error) {
	args, err := structpb.NewList([]any{fileName, content})
	if err != nil {
		return "", false, err
	}
	res, err := c.legacySaveFile.CallUnary(ctx, connect.NewRequest(args))
	if err != nil {
		return "", false, err
	}
	s, isString := res.Msg.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", false, nil
	}
	return s.StringValue, true, nil
}
