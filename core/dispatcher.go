package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Dispatcher routes actions to registered integrations. A nil recorder
// disables activity logging; a recorder failure never fails the dispatch.
type Dispatcher struct {
	Registry Registry
	Recorder ActivityRecorder
	Logger   Logger
	Now      func() time.Time
}

func NewDispatcher(registry Registry) *Dispatcher {
	return &Dispatcher{
		Registry: registry,
		Logger:   glog.Nop(),
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, action Action) (result map[string]any, err error) {
	if d == nil || d.Registry == nil {
		return nil, goerrors.New("core: dispatcher requires a registry", goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(ErrorCodeInternal)
	}
	if validateErr := action.Validate(); validateErr != nil {
		return nil, goerrors.Wrap(validateErr, goerrors.CategoryBadInput, "core: invalid action").
			WithCode(http.StatusBadRequest).
			WithTextCode(ErrorCodeValidation)
	}

	integration, ok := d.Registry.Get(action.Integration)
	if !ok {
		return nil, goerrors.New(
			fmt.Sprintf("core: unknown integration %q", strings.TrimSpace(action.Integration)),
			goerrors.CategoryNotFound,
		).
			WithCode(http.StatusNotFound).
			WithTextCode(ErrorCodeNotFound).
			WithMetadata(map[string]any{"integration": action.Integration})
	}

	startedAt := d.now()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = goerrors.New(
				fmt.Sprintf("core: integration %s panicked: %v", action.Integration, recovered),
				goerrors.CategoryInternal,
			).
				WithCode(http.StatusInternalServerError).
				WithTextCode(ErrorCodeInternal)
			result = nil
		}
		d.record(ctx, action, startedAt, err)
	}()

	result, err = integration.Execute(ctx, action.Operation, action.Params)
	if err != nil {
		err = MapError(err)
	}
	return result, err
}

func (d *Dispatcher) record(ctx context.Context, action Action, startedAt time.Time, err error) {
	if d == nil || d.Recorder == nil {
		return
	}
	status := "success"
	message := ""
	if err != nil {
		status = "failure"
		message = err.Error()
	}
	activity := ActionRunActivity{
		Integration: action.Integration,
		Operation:   action.Operation,
		Params:      cloneParams(action.Params),
		Status:      status,
		Error:       message,
		StartedAt:   startedAt,
		Duration:    d.now().Sub(startedAt),
	}
	if recordErr := d.Recorder.RecordActionRun(ctx, activity); recordErr != nil && d.Logger != nil {
		d.Logger.Error("record action run failed", "error", recordErr.Error())
	}
}

func (d *Dispatcher) now() time.Time {
	if d != nil && d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}
