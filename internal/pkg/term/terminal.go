// Package term реализует интерактивный терминал, в котором один пользователь
// отправляет себе сообщения, открывает редактор и управляет местами.
package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"message-editor/internal/domain"
	"message-editor/internal/editor"
	"message-editor/internal/engine"
	"message-editor/internal/format"
	"message-editor/internal/ports"

	"github.com/google/uuid"
	"golang.org/x/xerrors"
)

// Engine определяет операции движка, которые использует терминал.
type Engine interface {
	LookupPlace(name string) (domain.Place, bool)
	OnOutboundMessage(user uuid.UUID, place domain.Place, text string) domain.Outcome
	OnUserChatLine(ctx context.Context, user uuid.UUID, line string) bool
	BeginEditSession(user uuid.UUID, messageID string) (domain.EditSession, bool)
	HandleMenuAction(ctx context.Context, user uuid.UUID, action editor.Action) bool
	ActivatePlace(name string) (domain.Place, error)
	DeactivatePlace(name string) (domain.Place, error)
	DeactivateAll() int
	Reload(ctx context.Context) (engine.ReloadReport, error)
	ClearCaches()
	Places() []engine.PlaceStatus
	Rules() []ports.RuleRecord
}

// WidthSetter принимает ширину превью сообщений.
type WidthSetter interface {
	SetWidth(width int)
}

// Option определяет функциональную опцию для конфигурации терминала.
type Option func(*Terminal)

// WithInput — опция для замены источника ввода.
func WithInput(r io.Reader) Option {
	return func(t *Terminal) {
		t.in = bufio.NewReader(r)
		t.stdinfd = -1
		if f, ok := r.(*os.File); ok {
			t.stdinfd = int(f.Fd())
		}
	}
}

// WithOutput — опция для замены вывода.
func WithOutput(w io.Writer) Option {
	return func(t *Terminal) {
		t.out = w
	}
}

// WithWidthSetter — опция для подстройки ширины превью под размер терминала.
func WithWidthSetter(ws WidthSetter) Option {
	return func(t *Terminal) {
		t.width = ws
	}
}

// Terminal читает строки одного пользователя: команды начинаются с '/',
// остальные строки считаются сообщениями чата.
type Terminal struct {
	engine  Engine
	user    uuid.UUID
	in      *bufio.Reader
	out     io.Writer
	stdinfd int
	width   WidthSetter

	lastID string
}

// NewTerminal создает новый экземпляр Terminal, по умолчанию работающий со stdin и stdout.
func NewTerminal(eng Engine, user uuid.UUID, opts ...Option) *Terminal {
	t := &Terminal{
		engine:  eng,
		user:    user,
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		stdinfd: int(os.Stdin.Fd()),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run обрабатывает ввод до конца потока, команды /quit или отмены контекста.
func (t *Terminal) Run(ctx context.Context) error {
	interactive := isTerminal(t.stdinfd)
	if t.width != nil {
		if w := terminalWidth(t.stdinfd); w > 2 {
			t.width.SetWidth(min(w-2, format.MessageLength))
		}
	}
	if interactive {
		t.help()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if interactive {
			fmt.Fprint(t.out, "> ")
		}
		line, err := t.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return xerrors.Errorf("failed to read line: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line != "" && !t.Execute(ctx, line) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

// Execute выполняет одну строку ввода. Возвращает false после команды /quit.
func (t *Terminal) Execute(ctx context.Context, line string) bool {
	if !strings.HasPrefix(line, "/") {
		if !t.engine.OnUserChatLine(ctx, t.user, line) {
			t.println("<you> " + line)
		}
		return true
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		t.help()
		return true
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "quit", "exit":
		return false
	case "help":
		t.help()
	case "send":
		t.send(line, args)
	case "edit":
		t.edit(args)
	case "activate":
		t.activate(args)
	case "deactivate":
		t.deactivate(args)
	case "deactivate-all":
		t.engine.DeactivateAll()
		t.notify("&7You have deactivated analyzing all message places.")
	case "places":
		t.places()
	case "rules":
		t.rules()
	case "reload":
		t.reload(ctx)
	case "clear":
		t.engine.ClearCaches()
		t.notify("&7Message caches have been cleared.")
	default:
		action, ok := editor.ParseAction(name)
		if !ok {
			t.notify(fmt.Sprintf("&cUnknown command '&7%s&c'. Type &e/help&c.", name))
			return true
		}
		if !t.engine.HandleMenuAction(ctx, t.user, action) {
			t.notify("&cYou are not editing any message. Use &e/edit <message ID>&c first.")
		}
	}
	return true
}

// send отправляет пользователю сообщение: /send <place> <text>.
// Последовательность \n в тексте превращается в перевод строки.
func (t *Terminal) send(line string, args []string) {
	if len(args) < 2 {
		t.notify("&7Correct usage: &e/send <message place> <text>&7.")
		return
	}
	place, ok := t.engine.LookupPlace(args[0])
	if !ok {
		t.notify(fmt.Sprintf("&cCould not convert '&7%s&c' to a message place.", args[0]))
		return
	}

	// Текст берется из исходной строки, чтобы сохранить пробелы.
	rest := strings.TrimSpace(line[1:])
	rest = strings.TrimSpace(rest[len("send"):])
	text := strings.TrimSpace(rest[len(args[0]):])
	text = strings.ReplaceAll(format.Translate(text), `\n`, "\n")

	out := t.engine.OnOutboundMessage(t.user, place, text)
	if out.Suppressed {
		t.println(fmt.Sprintf("[%s] (message removed)", out.Place.FriendlyName))
		return
	}
	t.lastID = out.MessageID
	t.println(fmt.Sprintf("[%s] %s", out.Place.FriendlyName, format.Untranslate(format.Preview(out.Text, out.JSON))))
	t.println(fmt.Sprintf("  (id %s)", out.MessageID))
}

func (t *Terminal) edit(args []string) {
	id := t.lastID
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		t.notify("&7Correct usage: &e/edit <message ID>&7.")
		return
	}
	if _, ok := t.engine.BeginEditSession(t.user, id); !ok {
		t.notify(fmt.Sprintf("&cThere is no cached message data attached to the '&7%s&c' message ID.", id))
	}
}

func (t *Terminal) activate(args []string) {
	if len(args) == 0 {
		t.notify("&7Correct usage: &e/activate <message places>&7.")
		t.listPlaces()
		return
	}
	affected := 0
	for _, arg := range args {
		place, err := t.engine.ActivatePlace(arg)
		if err != nil {
			t.placeError(arg, place, err, "activated")
			continue
		}
		affected++
	}
	t.notify(fmt.Sprintf("&7You have activated analyzing &e%d &7message place(s).", affected))
}

func (t *Terminal) deactivate(args []string) {
	if len(args) == 0 {
		t.notify("&7Correct usage: &e/deactivate <message places>&7.")
		t.listPlaces()
		return
	}
	affected := 0
	for _, arg := range args {
		place, err := t.engine.DeactivatePlace(arg)
		if err != nil {
			t.placeError(arg, place, err, "deactivated")
			continue
		}
		affected++
	}
	t.notify(fmt.Sprintf("&7You have deactivated analyzing &e%d &7message place(s).", affected))
}

func (t *Terminal) placeError(arg string, place domain.Place, err error, state string) {
	switch {
	case errors.Is(err, domain.ErrUnknownPlace):
		t.notify(fmt.Sprintf("&cCould not convert '&7%s&c' to a message place.", arg))
	case errors.Is(err, domain.ErrPlaceNotSupported):
		t.notify(fmt.Sprintf("&7%s &cmessage place is not supported by your server.", place.FriendlyName))
	case errors.Is(err, domain.ErrPlaceAlreadyAnalyzed), errors.Is(err, domain.ErrPlaceNotAnalyzed):
		t.notify(fmt.Sprintf("&cAnalyzing &7%s &cmessage place is already %s.", place.FriendlyName, state))
	default:
		t.notify(fmt.Sprintf("&c%v", err))
	}
}

func (t *Terminal) places() {
	for _, st := range t.engine.Places() {
		state := "&7off"
		switch {
		case !st.Supported:
			state = "&8unsupported"
		case st.Analyzing:
			state = "&aanalyzing"
		}
		t.notify(fmt.Sprintf("&7- &e%s &7(&e%s&7) %s", st.Place.Name, st.Place.FriendlyName, state))
	}
}

func (t *Terminal) listPlaces() {
	t.notify("")
	t.notify("&7Available message places:")
	for _, st := range t.engine.Places() {
		if st.Supported {
			t.notify(fmt.Sprintf("&7- &e%s &7(&e%s&7)", st.Place.Name, st.Place.FriendlyName))
		}
	}
}

func (t *Terminal) rules() {
	rules := t.engine.Rules()
	if len(rules) == 0 {
		t.notify("&7There are no message edits.")
		return
	}
	for _, r := range rules {
		t.notify(fmt.Sprintf("&e%s&7: &f%s &7-> &f%s", r.Name, r.SourcePattern, r.Replacement))
	}
}

func (t *Terminal) reload(ctx context.Context) {
	report, err := t.engine.Reload(ctx)
	if err != nil {
		t.notify(fmt.Sprintf("&cCould not reload message edits: &7%v", err))
		return
	}
	for _, e := range report.Failed {
		t.notify(fmt.Sprintf("&cSkipped message edit: &7%v", e))
	}
	t.notify("&7Plugin has been reloaded.")
}

func (t *Terminal) help() {
	t.notify("&7Available commands:")
	t.notify("&e/send <message place> <text> &7- Sends a message to yourself.")
	t.notify("&e/edit [message ID] &7- Opens message editor.")
	t.notify("&e/activate <message places> &7- Activates analyzing specified message place(s).")
	t.notify("&e/deactivate <message places> &7- Deactivates analyzing specified message place(s).")
	t.notify("&e/deactivate-all &7- Deactivates analyzing all message places.")
	t.notify("&e/places &7- Lists message places.")
	t.notify("&e/rules &7- Lists message edits.")
	t.notify("&e/reload &7- Reloads message edits.")
	t.notify("&e/clear &7- Clears message caches.")
	t.notify("&e/" + strings.Join(actionNames(), "&7, &e/") + " &7- Editor menu actions.")
	t.notify("&e/quit &7- Exits.")
}

func actionNames() []string {
	actions := []editor.Action{
		editor.ActionEditFileName, editor.ActionEditSource, editor.ActionEditReplacement,
		editor.ActionEditReplacementKey, editor.ActionEditDestination, editor.ActionCommit, editor.ActionCancel,
	}
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, a.String())
	}
	return names
}

func (t *Terminal) notify(msg string) {
	t.println(editor.Prefix + msg)
}

func (t *Terminal) println(s string) {
	fmt.Fprintln(t.out, s)
}
