package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/contentpilot/contentpilot-backend/internal/app"
	"github.com/contentpilot/contentpilot-backend/internal/factory"
)

func newVideoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Call the GPU video factory directly",
	}
	cmd.AddCommand(newVideoGenerateCmd())
	cmd.AddCommand(newVideoInpaintCmd())
	return cmd
}

func newVideoGenerateCmd() *cobra.Command {
	var req factory.GenerateRequest
	var quality string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a video clip from a prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Quality = factory.Quality(quality)
			if err := req.Validate(); err != nil {
				return err
			}
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			defer log.Sync()

			res, err := app.NewFactoryClient(log, cfg.Factory).Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&req.Prompt, "prompt", "", "scene description")
	cmd.Flags().StringVar(&quality, "quality", string(factory.QualityDraft), "draft or production")
	cmd.Flags().StringVar(&req.AspectRatio, "aspect-ratio", "", "aspect ratio hint, e.g. 9:16")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func newVideoInpaintCmd() *cobra.Command {
	var req factory.InpaintRequest
	var mask string
	cmd := &cobra.Command{
		Use:   "inpaint",
		Short: "Re-render a masked region of an existing clip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.MaskCoordinates = json.RawMessage(mask)
			if err := req.Validate(); err != nil {
				return err
			}
			cfg, log, err := loadRuntime()
			if err != nil {
				return err
			}
			defer log.Sync()

			res, err := app.NewFactoryClient(log, cfg.Factory).Inpaint(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&req.VideoURL, "video-url", "", "source clip url")
	cmd.Flags().StringVar(&mask, "mask", "", "mask coordinates as a JSON array or object")
	cmd.Flags().StringVar(&req.Prompt, "prompt", "", "replacement description")
	_ = cmd.MarkFlagRequired("video-url")
	_ = cmd.MarkFlagRequired("mask")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
