package imagegen

import (
	"fmt"
	"strings"

	"github.com/javanhut/artgit/internal/errs"
)

// Kind is the images endpoint a request maps to.
type Kind int

const (
	Generate Kind = iota // prompt only
	Vary                 // source image only
	Edit                 // source image and prompt, optional mask
)

func (k Kind) String() string {
	switch k {
	case Generate:
		return "generate"
	case Vary:
		return "vary"
	case Edit:
		return "edit"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) path() string {
	switch k {
	case Vary:
		return "/images/variations"
	case Edit:
		return "/images/edits"
	}
	return "/images/generations"
}

// Request errors
var (
	ErrEmptyRequest = fmt.Errorf("%w: image request needs a prompt or a source image", errs.ErrValidation)
	ErrMaskOnly     = fmt.Errorf("%w: mask given without a source image", errs.ErrValidation)
	ErrEditPrompt   = fmt.Errorf("%w: masked edit needs a prompt", errs.ErrValidation)
	ErrNoAPIKey     = fmt.Errorf("%w: no API key configured", errs.ErrValidation)
)

// Request describes one image job. Image and Mask are PNG bytes.
type Request struct {
	Prompt string
	Image  []byte
	Mask   []byte
	Size   string // overrides Config.Size when set
	N      int    // defaults to 1
}

// Kind selects the endpoint from which fields are set. Only a mask turns
// an image request into an edit; an image with a prompt but no mask is a
// variation and the prompt is not sent.
func (r Request) Kind() (Kind, error) {
	hasPrompt := strings.TrimSpace(r.Prompt) != ""
	hasImage := len(r.Image) > 0
	hasMask := len(r.Mask) > 0
	switch {
	case hasMask && !hasImage:
		return 0, ErrMaskOnly
	case hasMask && !hasPrompt:
		return 0, ErrEditPrompt
	case hasMask:
		return Edit, nil
	case hasImage:
		return Vary, nil
	case hasPrompt:
		return Generate, nil
	}
	return 0, ErrEmptyRequest
}
