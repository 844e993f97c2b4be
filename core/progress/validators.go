package progress

import "github.com/trezcool/darasa/core"

// ContentUpdate is a content progress update as submitted by the caller.
type ContentUpdate struct {
	ContentID string `json:"content_id" validate:"required"`
	Progress  int    `json:"progress" validate:"min=0,max=100"`
}

func (cu *ContentUpdate) Validate() error {
	cu.ContentID = core.CleanString(cu.ContentID)
	return core.TranslateValidationError(core.Validate.Struct(cu))
}
