package action

import (
	"context"
	"fmt"

	"github.com/sreenadh34/biznavigate-backend-sub002/expr"
	"github.com/sreenadh34/biznavigate-backend-sub002/model"
	"github.com/sreenadh34/biznavigate-backend-sub002/util"
)

var _ Handler = new(scriptHandler)

// scriptHandler evaluates a restricted expression against the execution
// context. Params: {"script": "return intent == 'ORDER_REQUEST';"}. The
// result lands in the action's outputVariable like any other handler result.
type scriptHandler struct{}

func NewScriptHandler() *scriptHandler {
	return &scriptHandler{}
}

func (h *scriptHandler) Type() string {
	return ACTION_EXECUTE_SCRIPT
}

func (h *scriptHandler) Execute(ctx context.Context, params map[string]any, ec *model.ExecutionContext) (any, error) {
	script, _ := params["script"].(string)
	if script == "" {
		script, _ = params["expression"].(string)
	}
	if script == "" {
		return nil, model.ConfigurationError{Message: "execute_script requires a script"}
	}
	data := ec.AsMap()
	result, err := expr.Eval(script, func(path string) (any, bool) {
		return util.LookupPath(data, path)
	})
	if err != nil {
		return nil, fmt.Errorf("script evaluation failed: %w", err)
	}
	return result, nil
}
