// Package alert provides Alerter implementations. All of them are
// best-effort: a sound or toast that cannot be delivered is logged and
// swallowed, never returned to the caller.
package alert

import (
	"context"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/openclass/lms-client/internal/core/ports"
)

// LogAlerter renders alerts as log lines. Always available; the default
// for headless deployments.
type LogAlerter struct {
	log zerolog.Logger
}

func NewLogAlerter(log zerolog.Logger) *LogAlerter {
	return &LogAlerter{log: log}
}

func (a *LogAlerter) Sound(context.Context) {
	a.log.Info().Msg("notification chime")
}

func (a *LogAlerter) Toast(_ context.Context, level, message string) {
	switch level {
	case ports.ToastError:
		a.log.Error().Str("toast", level).Msg(message)
	default:
		a.log.Info().Str("toast", level).Msg(message)
	}
}

// CommandAlerter shells out to configured commands, e.g. a sound player
// ("paplay /usr/share/sounds/chime.oga") and a desktop notifier
// ("notify-send"). The toast message is appended as the final argument.
// Failures are logged at debug level; autoplay-style restrictions on the
// host must never surface as errors.
type CommandAlerter struct {
	soundCmd []string
	toastCmd []string
	log      zerolog.Logger
}

func NewCommandAlerter(soundCmd, toastCmd []string, log zerolog.Logger) *CommandAlerter {
	return &CommandAlerter{soundCmd: soundCmd, toastCmd: toastCmd, log: log}
}

func (a *CommandAlerter) Sound(ctx context.Context) {
	a.runCommand(ctx, a.soundCmd)
}

func (a *CommandAlerter) Toast(ctx context.Context, level, message string) {
	if len(a.toastCmd) == 0 {
		return
	}
	a.log.Debug().Str("level", level).Str("message", message).Msg("toast")
	argv := append(append([]string{}, a.toastCmd...), message)
	a.runCommand(ctx, argv)
}

func (a *CommandAlerter) runCommand(ctx context.Context, argv []string) {
	if len(argv) == 0 {
		return
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		a.log.Debug().Err(err).Str("command", argv[0]).Msg("alert command failed")
	}
}
