package skill

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sosodev/duration"

	"github.com/vietddude/askhub/internal/core/domain"
	"github.com/vietddude/askhub/internal/locale"
)

// Built-in intent names.
const (
	IntentYes              = "AMAZON.YesIntent"
	IntentNo               = "AMAZON.NoIntent"
	IntentHelp             = "AMAZON.HelpIntent"
	IntentCancel           = "AMAZON.CancelIntent"
	IntentStop             = "AMAZON.StopIntent"
	IntentFallback         = "AMAZON.FallbackIntent"
	IntentNumber           = "Number"
	IntentString           = "String"
	IntentSelect           = "Select"
	IntentDuration         = "Duration"
	IntentDate             = "Date"
	IntentControlDevice    = "ControlDeviceIntent"
	IntentGetStatus        = "GetStatusIntent"
	IntentSetValue         = "SetValueIntent"
	IntentActivateScenario = "ActivateScenarioIntent"
)

func (r *Router) registerDefaults() {
	r.Register(IntentYes, handleConstant(domain.ResponseYes))
	r.Register(IntentNo, handleConstant(domain.ResponseNo))
	r.Register(IntentNumber, handleNumber)
	r.Register(IntentString, handleString)
	r.Register(IntentSelect, handleSelect)
	r.Register(IntentDuration, handleDuration)
	r.Register(IntentDate, handleDate)
	r.Register(IntentControlDevice, handleControlDevice)
	r.Register(IntentGetStatus, handleGetStatus)
	r.Register(IntentSetValue, handleSetValue)
	r.Register(IntentActivateScenario, handleActivateScenario)
	r.Register(IntentHelp, handleHelp)
	r.Register(IntentCancel, handleStop)
	r.Register(IntentStop, handleStop)
	r.Register(IntentFallback, handleFallback)
}

// answer fetches the current question and posts value to it.
func (inv *Invocation) answer(ctx context.Context, value string, typ domain.ResponseType, extra map[string]any) string {
	c, err := inv.Hub(ctx)
	if err != nil {
		return inv.Text(locale.ErrorConfig, "Error")
	}
	// A failed fetch leaves a failed state behind, which Post reports.
	c.Fetch(ctx)
	return c.Post(ctx, value, typ, extra)
}

// acknowledged reports whether speech is the plain acknowledgment, so a
// handler can replace it with something more specific.
func (inv *Invocation) acknowledged(speech string) bool {
	return speech == inv.Text(locale.Okay, "OK")
}

func handleLaunch(ctx context.Context, inv *Invocation) Response {
	c, err := inv.Hub(ctx)
	if err != nil {
		return speak(inv.Text(locale.ErrorConfig, "Error"))
	}
	if !c.Fetch(ctx) {
		if f, ok := c.State().(*domain.FailedQuestion); ok && f.Message != "" {
			return speak(f.Message)
		}
		return speak(inv.Text(locale.ErrorConfig, "Error"))
	}

	q, _ := c.Active()
	if q.HasEvent() {
		return ask(q.Prompt)
	}
	return speak(q.Prompt)
}

func handleConstant(typ domain.ResponseType) Handler {
	return func(ctx context.Context, inv *Invocation) Response {
		return speak(inv.answer(ctx, string(typ), typ, nil))
	}
}

func handleNumber(ctx context.Context, inv *Invocation) Response {
	number := inv.Request.SlotValue("Numbers")
	if number == "" || number == "?" {
		return ask(inv.Text(locale.ErrorNoNumber, "I didn't catch the number."))
	}
	return speak(inv.answer(ctx, number, domain.ResponseNumeric, nil))
}

func handleString(ctx context.Context, inv *Invocation) Response {
	text := inv.Request.SlotValue("Strings")
	if text == "" {
		return ask(inv.Text(locale.ErrorNoString, "I didn't hear any text."))
	}
	return speak(inv.answer(ctx, text, domain.ResponseString, nil))
}

func handleSelect(ctx context.Context, inv *Invocation) Response {
	selection := inv.Request.ResolvedValue("Selections")
	if selection == "" {
		return ask(inv.Text(locale.ErrorNoSelection, "I didn't catch your choice."))
	}
	speech := inv.answer(ctx, selection, domain.ResponseSelect, nil)
	if inv.acknowledged(speech) {
		speech = inv.Strings.Format(locale.Selected, "{selection}", map[string]string{"selection": selection})
	}
	return speak(speech)
}

func handleDuration(ctx context.Context, inv *Invocation) Response {
	raw := inv.Request.SlotValue("Durations")
	if raw == "" {
		return ask(inv.Text(locale.ErrorNoDuration, "I didn't catch the duration."))
	}
	d, err := duration.Parse(raw)
	if err != nil {
		inv.Logger.Warn("Invalid duration", "value", raw, "error", err)
		return ask(inv.Text(locale.ErrorInvalidDuration, "That duration is not valid."))
	}
	seconds := strconv.FormatFloat(d.ToTimeDuration().Seconds(), 'f', -1, 64)
	return speak(inv.answer(ctx, seconds, domain.ResponseDuration, nil))
}

func handleDate(ctx context.Context, inv *Invocation) Response {
	date := inv.Request.SlotValue("Dates")
	clock := inv.Request.SlotValue("Times")
	if date == "" && clock == "" {
		return ask(inv.Text(locale.ErrorNoDateTime, "I didn't catch the date or the time."))
	}
	value, err := json.Marshal(parseDateTime(date, clock))
	if err != nil {
		return speak(inv.Text(locale.ErrorGeneral, "An error occurred"))
	}
	return speak(inv.answer(ctx, string(value), domain.ResponseDateTime, nil))
}

func handleControlDevice(ctx context.Context, inv *Invocation) Response {
	device := inv.Request.SlotValue("Device")
	action := inv.Request.SlotValue("Action")
	room := inv.Request.SlotValue("Room")
	if device == "" || action == "" {
		return ask(inv.Text(locale.ErrorMissingSlots, "I didn't catch the device or the action."))
	}

	command, err := json.Marshal(map[string]string{"device": device, "action": action, "room": room})
	if err != nil {
		return speak(inv.Text(locale.ErrorGeneral, "An error occurred"))
	}
	speech := inv.answer(ctx, string(command), domain.ResponseDeviceControl, map[string]any{
		"device": device,
		"action": action,
		"room":   room,
	})
	if inv.acknowledged(speech) {
		speech = inv.Strings.Format(locale.DeviceControlSuccess, "{action} {device}", map[string]string{
			"action": action,
			"device": device,
			"room":   room,
		})
	}
	return speak(speech)
}

func handleGetStatus(ctx context.Context, inv *Invocation) Response {
	device := inv.Request.SlotValue("Device")
	room := inv.Request.SlotValue("Room")
	if device == "" && room == "" {
		return ask(inv.Text(locale.ErrorMissingSlots, "I didn't catch the device or the action."))
	}
	target := device
	if target == "" {
		target = room
	}
	return speak(inv.answer(ctx, target, domain.ResponseStatusQuery, map[string]any{
		"device": device,
		"room":   room,
	}))
}

func handleSetValue(ctx context.Context, inv *Invocation) Response {
	device := inv.Request.SlotValue("Device")
	raw := inv.Request.SlotValue("Value")
	if device == "" || raw == "" {
		return ask(inv.Text(locale.ErrorMissingSlots, "I didn't catch the device or the action."))
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return ask(inv.Text(locale.ErrorInvalidValue, "That value is not valid."))
	}

	speech := inv.answer(ctx, strconv.FormatFloat(value, 'f', -1, 64), domain.ResponseSetValue, map[string]any{
		"device": device,
		"value":  value,
	})
	if inv.acknowledged(speech) {
		speech = inv.Strings.Format(locale.SetValueSuccess, "{device} {value}", map[string]string{
			"device": device,
			"value":  raw,
		})
	}
	return speak(speech)
}

func handleActivateScenario(ctx context.Context, inv *Invocation) Response {
	scenario := inv.Request.SlotValue("Scenario")
	if scenario == "" {
		return ask(inv.Text(locale.ErrorMissingScenario, "Which scenario should I run?"))
	}
	speech := inv.answer(ctx, scenario, domain.ResponseScenario, map[string]any{"scenario": scenario})
	if inv.acknowledged(speech) {
		speech = inv.Strings.Format(locale.ScenarioActivated, "{scenario}", map[string]string{"scenario": scenario})
	}
	return speak(speech)
}

func handleHelp(_ context.Context, inv *Invocation) Response {
	return ask(inv.Text(locale.HelpMessage, "How can I help you?"))
}

func handleStop(_ context.Context, inv *Invocation) Response {
	return speak(inv.Text(locale.StopMessage, "Goodbye"))
}

// handleFallback releases the pending question so the hub stops waiting.
func handleFallback(ctx context.Context, inv *Invocation) Response {
	inv.answer(ctx, string(domain.ResponseNone), domain.ResponseNone, nil)
	return speak(inv.Text(locale.FallbackMessage, "I didn't understand."))
}

func handleSessionEnded(ctx context.Context, inv *Invocation) Response {
	switch inv.Request.Reason {
	case ReasonUserInitiated, ReasonExceededMaxReprompts:
		inv.answer(ctx, string(domain.ResponseNone), domain.ResponseNone, nil)
	default:
		inv.Logger.Info("Session ended", "reason", inv.Request.Reason)
	}
	return Response{EndSession: true}
}
