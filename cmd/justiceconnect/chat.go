package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/PabloGalante/justiceconnect/internal/client"
	"github.com/PabloGalante/justiceconnect/internal/config"
	"github.com/PabloGalante/justiceconnect/internal/domain"
)

var (
	chatServerURL string
	chatLanguage  string
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running JusticeConnect server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(validateChatConfig)
		if err != nil {
			return err
		}

		lang, err := domain.ParseLanguage(chatLanguage)
		if err != nil {
			return err
		}

		api := client.New(strings.TrimRight(cfg.Client.ServerURL, "/")+cfg.Server.BasePath, cfg.Client.Timeout)
		return newREPL(api, lang, os.Stdin, os.Stdout).run(cmd.Context())
	},
}

// validateChatConfig applies --server and checks the client settings only,
// so a cloud-mode environment without server credentials can still chat.
func validateChatConfig(cfg *config.Config) error {
	if chatServerURL != "" {
		cfg.Client.ServerURL = chatServerURL
	}
	return cfg.ValidateClient()
}

func init() {
	chatCmd.Flags().StringVar(&chatServerURL, "server", "", "server URL (default from client.server_url)")
	chatCmd.Flags().StringVarP(&chatLanguage, "language", "l", "english", "english, tagalog or bisaya")
}

type repl struct {
	api   *client.Client
	conv  *client.Conversation
	state client.ViewState
	chats []*domain.Session
	in    *bufio.Scanner
	out   io.Writer
}

func newREPL(api *client.Client, lang domain.Language, in io.Reader, out io.Writer) *repl {
	return &repl{
		api:   api,
		conv:  client.NewConversation(api, lang),
		state: client.Initial(),
		in:    bufio.NewScanner(in),
		out:   out,
	}
}

func (r *repl) println(s string) {
	fmt.Fprintln(r.out, s)
}

func (r *repl) prompt(label string) (string, bool) {
	fmt.Fprint(r.out, label)
	if !r.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

func (r *repl) run(ctx context.Context) error {
	r.println(bannerStyle.Render("JusticeConnect - Philippine law assistant"))
	r.showWelcome()

	for {
		line, ok := r.prompt("> ")
		if !ok {
			return r.in.Err()
		}
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			r.send(ctx, line)
			continue
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "/quit", "/exit":
			return nil
		case "/login":
			r.authenticate(ctx, client.EventShowLogin)
		case "/signup":
			r.authenticate(ctx, client.EventShowSignUp)
		case "/guest":
			r.transition(client.EventContinueAsGuest)
			if r.state.View == client.ViewMain {
				r.conv.SetOwner("")
				r.println(hintStyle.Render("Free mode: chats are not saved."))
			}
		case "/new":
			r.conv.Reset()
			r.println(hintStyle.Render("Started a new conversation."))
		case "/history":
			r.listHistory(ctx)
		case "/load":
			r.loadChat(arg)
		case "/delete":
			r.deleteChat(ctx, arg)
		case "/lang":
			r.setLanguage(arg)
		case "/actions":
			r.showActions(ctx)
		case "/logout":
			r.logout(ctx)
		default:
			r.println(errorStyle.Render("Unknown command " + cmd))
			r.showHelp()
		}
	}
}

func (r *repl) transition(ev client.Event) bool {
	next, err := r.state.Next(ev)
	if err != nil {
		r.println(errorStyle.Render(fmt.Sprintf("Not available on the %s screen.", r.state.View)))
		return false
	}
	r.state = next
	return true
}

func (r *repl) showWelcome() {
	r.println("Ask about your rights under Philippine law in English, Tagalog or Bisaya.")
	r.println(hintStyle.Render("/login  /signup  /guest  /quit"))
}

func (r *repl) showHelp() {
	r.println(hintStyle.Render("/new /history /load N /delete N /lang L /actions /login /signup /logout /quit"))
}

func (r *repl) send(ctx context.Context, text string) {
	if r.state.View != client.ViewMain {
		r.println(hintStyle.Render("Choose /login, /signup or /guest first."))
		return
	}

	r.println(userStyle.Render("You: ") + text)
	reply, err := r.conv.Send(ctx, text)
	if err != nil {
		r.println(errorStyle.Render(client.FailureMessage))
		return
	}
	r.println(assistantStyle.Render("JusticeConnect: ") + reply)
}

// authenticate runs the login or signup form; a failed attempt returns to
// the previous screen.
func (r *repl) authenticate(ctx context.Context, ev client.Event) {
	prev := r.state
	if !r.transition(ev) {
		return
	}

	email, ok := r.prompt("Email or phone: ")
	if !ok {
		return
	}
	password, ok := r.prompt("Password: ")
	if !ok {
		return
	}

	if r.state.SignUp {
		name, ok := r.prompt("Name: ")
		if !ok {
			return
		}
		if _, err := r.api.SignUp(ctx, email, password, name); err != nil {
			r.authFailed(prev, err)
			return
		}
	}

	auth, err := r.api.SignIn(ctx, email, password)
	if err != nil {
		r.authFailed(prev, err)
		return
	}

	r.transition(client.EventAuthenticated)
	r.conv.SetOwner(auth.User.ID)
	r.conv.Reset()

	name := auth.User.Name
	if name == "" {
		name = auth.User.Email
	}
	r.println(hintStyle.Render("Signed in as " + name + ". Chats are saved to your history."))
}

func (r *repl) authFailed(prev client.ViewState, err error) {
	msg := err.Error()
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	r.println(errorStyle.Render(msg))

	if prev.View == client.ViewMain {
		// a guest who gave up on signing in keeps chatting
		r.state = prev
		return
	}
	r.transition(client.EventBack)
}

func (r *repl) listHistory(ctx context.Context) {
	if !r.state.Authenticated() {
		r.println(hintStyle.Render("Sign in to see your saved chats."))
		return
	}

	chats, err := r.api.History(ctx)
	if err != nil {
		r.println(errorStyle.Render("Could not load history: " + err.Error()))
		return
	}
	r.chats = chats
	if len(chats) == 0 {
		r.println(hintStyle.Render("No saved chats yet."))
		return
	}
	for i, c := range chats {
		r.println(fmt.Sprintf("%2d. %s %s", i+1, client.Preview(c), hintStyle.Render(c.UpdatedAt.Local().Format("Jan 2 15:04"))))
	}
}

func (r *repl) pick(arg string) (*domain.Session, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(r.chats) {
		r.println(errorStyle.Render("Run /history and pick a number from the list."))
		return nil, false
	}
	return r.chats[n-1], true
}

func (r *repl) loadChat(arg string) {
	s, ok := r.pick(arg)
	if !ok {
		return
	}
	r.conv.LoadChat(s)
	for _, m := range s.Messages {
		if m.Role == domain.RoleUser {
			r.println(userStyle.Render("You: ") + m.Content)
		} else {
			r.println(assistantStyle.Render("JusticeConnect: ") + m.Content)
		}
	}
}

func (r *repl) deleteChat(ctx context.Context, arg string) {
	s, ok := r.pick(arg)
	if !ok {
		return
	}
	if err := r.api.DeleteChat(ctx, s.ID); err != nil {
		r.println(errorStyle.Render("Could not delete chat: " + err.Error()))
		return
	}
	if r.conv.Session().ID == s.ID {
		r.conv.Reset()
	}
	r.println(hintStyle.Render("Deleted."))
	r.listHistory(ctx)
}

func (r *repl) setLanguage(arg string) {
	lang, err := domain.ParseLanguage(arg)
	if err != nil || arg == "" {
		r.println(errorStyle.Render("Languages: english, tagalog, bisaya"))
		return
	}
	r.conv.SetLanguage(lang)
	r.println(hintStyle.Render("Language set to " + lang.Label() + "."))
}

func (r *repl) showActions(ctx context.Context) {
	qa, err := r.api.QuickActions(ctx, r.conv.Session().Language)
	if err != nil {
		r.println(errorStyle.Render("Could not load quick actions: " + err.Error()))
		return
	}
	for _, a := range qa.Actions {
		r.println(fmt.Sprintf("  %s: %s", userStyle.Render(a.Label), a.Question))
	}
}

func (r *repl) logout(ctx context.Context) {
	if !r.transition(client.EventLoggedOut) {
		return
	}
	if err := r.api.SignOut(ctx); err != nil {
		r.println(errorStyle.Render("Sign out failed: " + err.Error()))
	}
	r.conv.SetOwner("")
	r.conv.Reset()
	r.chats = nil
	r.showWelcome()
}
