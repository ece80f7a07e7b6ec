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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fawa-io/savebridge/pkg/config"
	"github.com/fawa-io/savebridge/pkg/fwlog"
	"github.com/fawa-io/savebridge/pkg/notify"
	"github.com/fawa-io/savebridge/pkg/storage"
	"github.com/fawa-io/savebridge/service/bridge"
)

var errSaveFailed = errors.New("save failed")

// newRootCmd builds the savefile command on top of fs. Content comes from
// --from or, when that is not given, from stdin.
func newRootCmd(fs afero.Fs) *cobra.Command {
	var (
		cfgFile string
		from    string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "savefile <fileName>",
		Short: "Save a text artifact into the device downloads folder",
		Long: `savefile writes content into <downloads>/<namespace>/<fileName> using the
same resolution rules as the bridge server, and prints the saved path.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				fwlog.SetLevel(fwlog.LevelDebug)
			}

			v := viper.New()
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
			}
			cfg, err := config.Load(v, cmd.Flags())
			if err != nil {
				return err
			}

			var content []byte
			if from != "" {
				content, err = afero.ReadFile(fs, from)
			} else {
				content, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read content: %w", err)
			}

			host := storage.StaticHost{
				Public:  cfg.Storage.PublicDownloadsDir,
				App:     cfg.Storage.AppDownloadsDir,
				Version: cfg.Storage.PlatformVersion,
			}
			saver := storage.NewSaver(fs, host,
				storage.WithNamespace(cfg.Storage.Namespace),
				storage.WithRestrictedSince(cfg.Storage.RestrictedSince),
			)
			h := bridge.NewHandler(saver, notify.LogNotifier{})

			path, ok := h.SaveFileLegacy(context.Background(), args[0], string(content))
			if !ok {
				return errSaveFailed
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or /etc/polarjoin/config.yaml)")
	cmd.Flags().StringVar(&from, "from", "", "read content from this file instead of stdin")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	config.RegisterFlags(cmd.Flags())

	return cmd
}

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
