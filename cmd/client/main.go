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

package main

import (
	"context"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/fawa-io/savebridge/pkg/fwlog"
	"github.com/fawa-io/savebridge/service/bridge"
)

func main() {
	addr := pflag.String("addr", "http://localhost:8080", "bridge server base URL")
	name := pflag.String("name", "report.csv", "file name to save")
	mime := pflag.String("mime", "", "optional mime type")
	legacy := pflag.Bool("legacy", false, "use the positional legacy call")
	pflag.Parse()

	content := "a,b\n1,2\n"
	if pflag.NArg() > 0 {
		data, err := os.ReadFile(pflag.Arg(0))
		if err != nil {
			fwlog.Fatalf("read %s: %v", pflag.Arg(0), err)
		}
		content = string(data)
	}

	client := bridge.NewClient(http.DefaultClient, *addr)
	ctx := context.Background()

	if *legacy {
		path, ok, err := client.SaveFileLegacy(ctx, *name, content)
		if err != nil {
			fwlog.Fatal(err)
		}
		if !ok {
			fwlog.Fatal("save failed, see server notifications")
		}
		fwlog.Infof("saved to %s", path)
		return
	}

	path, err := client.SaveFile(ctx, *name, content, *mime)
	if err != nil {
		fwlog.Fatal(err)
	}
	fwlog.Infof("saved to %s", path)
}
