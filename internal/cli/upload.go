// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package cli

import (
	"github.com/spf13/cobra"

	"github.com/cinelens/cinelens/internal/logging"
	"github.com/cinelens/cinelens/internal/upload"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a processed file to S3",
	Long: `Upload ships a file to an S3 bucket and verifies the object exists
afterwards. A failed upload exits with code 2, a failed verification
with code 3.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket := cfg.Upload.Bucket
		if cmd.Flags().Changed("bucket") {
			bucket, _ = cmd.Flags().GetString("bucket")
		}
		region := cfg.Upload.Region
		if cmd.Flags().Changed("region") {
			region, _ = cmd.Flags().GetString("region")
		}
		key, _ := cmd.Flags().GetString("key")
		file, _ := cmd.Flags().GetString("file")

		uploader, err := upload.NewFromRegion(cmd.Context(), region, upload.Config{
			Bucket:        bucket,
			KeyPrefix:     cfg.Upload.KeyPrefix,
			RateLimitMBps: cfg.Upload.RateLimitMBps,
		})
		if err != nil {
			return err
		}

		if err := uploader.Upload(cmd.Context(), file, key); err != nil {
			return err
		}
		logging.Info().
			Str("bucket", bucket).
			Str("file", file).
			Msg("upload complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().String("bucket", "", "target S3 bucket")
	uploadCmd.Flags().String("key", "", "object key (default: key prefix + file basename)")
	uploadCmd.Flags().String("file", "", "local file to upload")
	uploadCmd.Flags().String("region", "", "AWS region")
	_ = uploadCmd.MarkFlagRequired("file")
}
