package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javanhut/artgit/internal/colors"
	"github.com/javanhut/artgit/internal/errs"
	"github.com/javanhut/artgit/internal/filehost"
	"github.com/javanhut/artgit/internal/imagegen"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create an image with the images API",
	Long: `Send a prompt, a source image, or both to an OpenAI-compatible images
API and save the result as PNG.

  --prompt only              generate from text
  --image (or --from-doc)    variation of the image; --prompt is ignored
  --image, --mask, --prompt  edit the masked area

The API key comes from ARTGIT_API_KEY, OPENAI_API_KEY or image.api_key.

Examples:
  artgit generate --prompt "a cat in a teacup" --out cat.png
  artgit --doc cat.kra generate --from-doc --out variant.png`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var (
	genPrompt  string
	genImage   string
	genMask    string
	genFromDoc bool
	genOut     string
	genSize    string
	genN       int
)

func init() {
	generateCmd.Flags().StringVarP(&genPrompt, "prompt", "p", "", "Text prompt")
	generateCmd.Flags().StringVar(&genImage, "image", "", "Source PNG for variations and edits")
	generateCmd.Flags().StringVar(&genMask, "mask", "", "PNG mask for edits; transparent areas are repainted")
	generateCmd.Flags().BoolVar(&genFromDoc, "from-doc", false, "Use the flattened --doc as the source image")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "Output PNG (default <doc or artgit>_ai.png)")
	generateCmd.Flags().StringVar(&genSize, "size", "", "Image size, e.g. 1024x1024")
	generateCmd.Flags().IntVar(&genN, "n", 1, "Number of images to request; the first is saved")
	generateCmd.MarkFlagsMutuallyExclusive("image", "from-doc")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	req := imagegen.Request{Prompt: genPrompt, Size: genSize, N: genN}

	var err error
	switch {
	case genFromDoc:
		if docPath == "" {
			return errNoDocument
		}
		if req.Image, err = flattenDocument(docPath); err != nil {
			return err
		}
	case genImage != "":
		if req.Image, err = os.ReadFile(genImage); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrNotFound, err)
		}
	}
	if genMask != "" {
		if req.Mask, err = os.ReadFile(genMask); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrNotFound, err)
		}
	}
	kind, err := req.Kind()
	if err != nil {
		return err
	}

	client, err := imagegen.NewClient(cfg.ImageClientConfig(), imagegen.WithLogger(logger))
	if err != nil {
		return err
	}

	out := genOut
	if out == "" {
		base := "artgit"
		if docPath != "" {
			base = strings.TrimSuffix(docPath, filepath.Ext(docPath))
		}
		out = base + "_ai.png"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)...\n", colors.InfoText("Generating"), kind)
	res := <-client.Go(cmd.Context(), req)
	if res.Err != nil {
		return res.Err
	}
	if err := os.WriteFile(out, res.Image, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", errs.ErrPersistence, out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d bytes)\n", colors.SuccessText("Saved"), out, len(res.Image))
	return nil
}

// flattenDocument renders path to PNG bytes through a temporary file.
func flattenDocument(path string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "artgit-flat-*.png")
	if err != nil {
		return nil, err
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	doc, err := filehost.New(path).OpenDocument(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrNotFound, err)
	}
	defer doc.Close()
	if err := doc.ExportFlattened(tmp.Name()); err != nil {
		return nil, fmt.Errorf("%w: flatten %s: %v", errs.ErrValidation, filepath.Base(path), err)
	}
	return os.ReadFile(tmp.Name())
}
