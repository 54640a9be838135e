// Package bot routes inbound chat events to the dialog engine, the stateless
// query handlers, and the geofence evaluator.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tripweaver/tripweaver/internal/dialog"
	"github.com/tripweaver/tripweaver/internal/geofence"
	"github.com/tripweaver/tripweaver/internal/models"
	"github.com/tripweaver/tripweaver/internal/trips"
)

const locationAckReply = "Location received."

// dialogStarters maps stateless command tokens to the multi-step dialog they
// begin.
var dialogStarters = map[string]models.Command{
	"/plantrip":       models.CommandPlanTrip,
	"/addpoint":       models.CommandAddPoint,
	"/addroute":       models.CommandAddRoute,
	"/finishplanning": models.CommandFinishPlanning,
	"/addnote":        models.CommandAddNote,
	"/markpoint":      models.CommandMarkPoint,
	"/ratefinished":   models.CommandRateFinished,
	"/deleteplanned":  models.CommandDeletePlanned,
	"/setongoing":     models.CommandSetOngoing,
	"/startontrip":    models.CommandSetOngoing,
}

// Router dispatches each inbound message on the lower-cased first token, or
// forwards it to the chat's active dialog.
type Router struct {
	engine      *dialog.Engine
	coordinator *trips.Coordinator
	geofence    *geofence.Evaluator
}

// NewRouter creates a Router over the dialog engine, the trip coordinator and
// the geofence evaluator.
func NewRouter(engine *dialog.Engine, coordinator *trips.Coordinator, evaluator *geofence.Evaluator) *Router {
	return &Router{engine: engine, coordinator: coordinator, geofence: evaluator}
}

// HandleMessage processes one inbound text message and returns the reply.
//
// While a dialog is active every message is fed to it, whatever it looks
// like. The one exception is a dialog parked on the awaiting-location step:
// that step is satisfied only by a location event, so text abandons the
// dialog and is dispatched statelessly instead.
func (r *Router) HandleMessage(ctx context.Context, chatID int64, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if _, active := r.engine.CurrentStep(chatID); active {
		if r.engine.AwaitingLocation(chatID) {
			r.engine.Cancel(chatID)
			slog.Debug("Router abandoned location dialog on text input", "chatID", chatID)
		} else {
			reply, err := r.engine.Input(ctx, chatID, text)
			if err != nil && !errors.Is(err, models.ErrNoSession) {
				slog.Error("Router dialog input failed", "error", err, "chatID", chatID)
				return dialog.GenericFailureReply
			}
			if err == nil {
				return reply
			}
			// Session vanished between the check and the input; fall
			// through to stateless dispatch.
		}
	}

	token, rest, _ := strings.Cut(text, " ")
	token = strings.ToLower(token)
	return r.dispatch(ctx, chatID, token, strings.TrimSpace(rest))
}

func (r *Router) dispatch(ctx context.Context, chatID int64, token, args string) string {
	if cmd, ok := dialogStarters[token]; ok {
		reply, err := r.engine.Start(chatID, cmd)
		if err != nil {
			slog.Error("Router failed to start dialog", "error", err, "chatID", chatID, "token", token)
			return dialog.GenericFailureReply
		}
		// /startontrip shows the planned trips before asking which one to
		// start, so the user can answer from the list.
		if token == "/startontrip" {
			planned, err := r.coordinator.ShowPlanned(ctx, chatID)
			if err != nil {
				slog.Error("Router failed to list planned trips", "error", err, "chatID", chatID)
				return reply
			}
			return planned + "\n\n" + reply
		}
		return reply
	}

	var (
		reply string
		err   error
	)
	switch token {
	case "/start":
		reply, err = r.coordinator.RegisterUser(ctx, chatID)
	case "/help":
		reply = r.coordinator.Help()
	case "/showplanned":
		reply, err = r.coordinator.ShowPlanned(ctx, chatID)
	case "/showongoingtrip":
		reply, err = r.coordinator.ShowOngoing(ctx, chatID)
	case "/triphistory":
		reply, err = r.coordinator.TripHistory(ctx, chatID)
	case "/finisheddetails":
		reply, err = r.coordinator.FinishedDetails(ctx, chatID, args)
	default:
		return fmt.Sprintf("Unknown command %q. Send /help to see what I can do.", token)
	}
	if err != nil {
		slog.Error("Router command failed", "error", err, "chatID", chatID, "token", token)
		return dialog.GenericFailureReply
	}
	return reply
}

// HandleLocation processes one inbound location event and returns the reply.
//
// A dialog awaiting a location is completed first, whatever the geofence
// outcome. The position is then run through the geofence evaluator, which
// persists it as the chat's last known location and sends any arrival
// notification itself.
func (r *Router) HandleLocation(ctx context.Context, chatID int64, lat, lon float64) string {
	reply, completed := r.engine.CompleteWithLocation(ctx, chatID)

	if err := r.geofence.OnLocation(ctx, chatID, lat, lon); err != nil {
		slog.Error("Router geofence evaluation failed", "error", err, "chatID", chatID)
	}

	if completed {
		return reply
	}
	return locationAckReply
}
