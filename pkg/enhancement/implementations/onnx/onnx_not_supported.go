//go:build !onnxruntime
// +build !onnxruntime

package onnx

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/speechenhance/pkg/enhancement"
)

type Model = enhancement.Identity

func New(
	ctx context.Context,
	cfg Config,
) (*Model, error) {
	return nil, fmt.Errorf("built without tag 'onnxruntime'")
}
