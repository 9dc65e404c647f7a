package ui

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"schoolplus/internal/app"
	"schoolplus/internal/domain"
)

// Root is the terminal host. It renders one tab and forwards key presses to its controllers.
// View methods are called from controller goroutines and only touch widgets through
// QueueUpdateDraw.
type Root struct {
	app       *tview.Application
	tab       *app.Tab
	ctx       context.Context
	presets   []string
	exportDir string

	header   *tview.TextView
	status   *tview.TextView
	screens  *tview.Pages
	pages    *tview.Pages
	menu     *tview.List
	levels   *tview.List
	progress *tview.TextView
	question *tview.TextView
	options  *tview.List
	feedback *tview.TextView
	results  *tview.TextView
	after    *tview.List

	chatLog    *tview.TextView
	chatInput  *tview.TextArea
	chatStatus *tview.TextView

	// state below is owned by the event loop
	nav           int
	optionTexts   []string
	fields        map[app.ResultField]string
	passed        bool
	logLines      []string
	assistantIdx  []int
	logCount      int
	chat          chatStatus
	notifications []domain.Notification
	modal         string
	presetIdx     int
}

type Options struct {
	Presets   []string
	ExportDir string
}

func New(opts Options) *Root {
	r := &Root{
		app:       tview.NewApplication(),
		ctx:       context.Background(),
		presets:   opts.Presets,
		exportDir: opts.ExportDir,
		nav:       -1,
		fields:    make(map[app.ResultField]string),
		chat:      chatStatus{sendEnabled: true, temperature: "0.7"},
	}
	if r.exportDir == "" {
		r.exportDir = "."
	}

	r.header = tview.NewTextView().SetDynamicColors(true)
	r.status = tview.NewTextView().SetDynamicColors(true)

	r.menu = tview.NewList().ShowSecondaryText(false).
		AddItem("Start Game", "", 's', func() { r.do(r.tab.Quiz.StartGame) }).
		AddItem("Select Level", "", 'l', func() { go r.tab.Quiz.ShowLevelSelect() }).
		AddItem("Quit", "", 'q', func() { go r.tab.Quiz.QuitGame() })
	r.menu.SetBorder(true).SetTitle(" Gongwan Tycoon ")

	r.levels = tview.NewList().ShowSecondaryText(false).
		AddItem("Level 1: Python basics", "", 0, func() {
			r.do(func(ctx context.Context) error { return r.tab.Quiz.SelectLevel(ctx, 1) })
		}).
		AddItem("Back", "", 'b', func() { go r.tab.Quiz.ShowMainMenu() })
	r.levels.SetBorder(true).SetTitle(" Levels ")

	loading := tview.NewTextView().SetTextAlign(tview.AlignCenter).SetText("Loading...")

	r.progress = tview.NewTextView().SetDynamicColors(true)
	r.question = tview.NewTextView().SetDynamicColors(true).SetWrap(true)
	r.options = tview.NewList().ShowSecondaryText(false)
	r.feedback = tview.NewTextView().SetDynamicColors(true)
	gameplay := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(r.progress, 1, 0, false).
		AddItem(r.question, 3, 0, false).
		AddItem(r.options, 0, 1, true).
		AddItem(r.feedback, 2, 0, false)
	gameplay.SetBorder(true).SetTitle(" Quiz ")

	r.results = tview.NewTextView().SetDynamicColors(true)
	r.after = tview.NewList().ShowSecondaryText(false).
		AddItem("Play again", "", 'r', func() { r.do(r.tab.Quiz.ReplayLevel) }).
		AddItem("Main menu", "", 'm', func() { go r.tab.Quiz.ShowMainMenu() })
	resultsPage := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(r.results, 0, 1, false).
		AddItem(r.after, 3, 0, true)
	resultsPage.SetBorder(true).SetTitle(" Results ")

	r.screens = tview.NewPages().
		AddPage(string(domain.ScreenMainMenu), r.menu, true, true).
		AddPage(string(domain.ScreenLevelSelect), r.levels, true, false).
		AddPage(string(domain.ScreenLoading), loading, true, false).
		AddPage(string(domain.ScreenGameplay), gameplay, true, false).
		AddPage(string(domain.ScreenResults), resultsPage, true, false)

	r.chatLog = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	r.chatInput = tview.NewTextArea().SetPlaceholder("Ask the assistant... (Enter to send, Alt+Enter for a new line)")
	r.chatStatus = tview.NewTextView().SetDynamicColors(true)
	chatPane := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(r.chatLog, 0, 1, false).
		AddItem(r.chatStatus, 1, 0, false).
		AddItem(r.chatInput, 3, 0, false)
	chatPane.SetBorder(true).SetTitle(" Assistant ")

	body := tview.NewFlex().
		AddItem(r.screens, 0, 1, true).
		AddItem(chatPane, 0, 1, false)
	main := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(r.header, 1, 0, false).
		AddItem(body, 0, 1, true).
		AddItem(r.status, 1, 0, false)

	r.pages = tview.NewPages().AddPage("main", main, true, true)
	r.app.SetRoot(r.pages, true)
	r.app.SetInputCapture(r.captureInput)

	r.refreshHeader()
	r.refreshChatStatus()
	return r
}

// Clipboard returns the terminal clipboard used for copying assistant replies.
func (r *Root) Clipboard() app.Clipboard {
	return osc52Clipboard{w: os.Stdout}
}

// Bind attaches the controllers the keys are forwarded to.
func (r *Root) Bind(tab *app.Tab) {
	r.tab = tab
}

// Run blocks until the application stops or ctx is cancelled.
func (r *Root) Run(ctx context.Context) error {
	r.ctx = ctx
	go func() {
		<-ctx.Done()
		r.app.Stop()
	}()
	return r.app.Run()
}

// do runs a blocking controller call off the event loop. Controllers call back into the view,
// which queues onto the event loop, so they must never run on it.
func (r *Root) do(fn func(ctx context.Context) error) {
	go func() {
		if err := fn(r.ctx); err != nil {
			log.Printf("ui: %v", err)
		}
	}()
}

func (r *Root) queue(fn func()) {
	r.app.QueueUpdateDraw(fn)
}

func (r *Root) captureInput(ev *tcell.EventKey) *tcell.EventKey {
	if ev == nil || r.tab == nil {
		return ev
	}
	if r.modal != "" {
		if ev.Key() == tcell.KeyEsc && r.modal != "confirm" {
			r.closeModal()
			return nil
		}
		return ev
	}

	switch ev.Key() {
	case tcell.KeyTab:
		if r.chatInput.HasFocus() {
			r.app.SetFocus(r.screens)
		} else {
			r.app.SetFocus(r.chatInput)
		}
		return nil
	case tcell.KeyF1:
		if len(r.presets) > 0 {
			prompt := r.presets[r.presetIdx%len(r.presets)]
			r.presetIdx++
			go r.tab.Chat.ApplyPreset(prompt)
		}
		return nil
	case tcell.KeyF2:
		r.showNotifications()
		return nil
	case tcell.KeyF3:
		r.showSettings()
		return nil
	case tcell.KeyF4:
		r.showIssuePicker()
		return nil
	case tcell.KeyF5:
		go r.tab.Chat.Export()
		return nil
	case tcell.KeyF6:
		r.do(func(ctx context.Context) error { r.tab.Chat.Clear(ctx); return nil })
		return nil
	case tcell.KeyF7:
		go r.tab.Chat.Regenerate()
		return nil
	case tcell.KeyF8:
		go r.tab.Chat.ToggleVoice()
		return nil
	case tcell.KeyCtrlY:
		if n := len(r.assistantIdx); n > 0 {
			index := r.assistantIdx[n-1]
			go r.tab.Chat.Copy(index)
		}
		return nil
	}

	if r.chatInput.HasFocus() {
		switch ev.Key() {
		case tcell.KeyEnter:
			text := r.chatInput.GetText()
			shift := ev.Modifiers()&tcell.ModAlt != 0 || ev.Modifiers()&tcell.ModShift != 0
			if !shift && !r.chat.sendEnabled {
				return nil
			}
			r.do(func(ctx context.Context) error { return r.tab.Chat.HandleEnter(ctx, text, shift) })
			return nil
		case tcell.KeyEsc:
			r.app.SetFocus(r.screens)
			return nil
		}
		return ev
	}

	switch {
	case ev.Key() == tcell.KeyEsc:
		r.do(func(ctx context.Context) error { return r.tab.Quiz.HandleKey(ctx, "Escape") })
		return nil
	case ev.Key() == tcell.KeyRune && ev.Rune() >= '1' && ev.Rune() <= '4':
		key := string(ev.Rune())
		r.do(func(ctx context.Context) error { return r.tab.Quiz.HandleKey(ctx, key) })
		return nil
	}
	return ev
}

func (r *Root) refreshHeader() {
	r.header.SetText(renderNav(r.nav) + "   " + renderNotifications(r.notifications) + "   [gray]F1 preset F2 notifications F3 settings F4 forum F5 export F6 clear F7 regenerate F8 voice Ctrl+Y copy[-]")
}

func (r *Root) refreshChatStatus() {
	r.chatStatus.SetText(renderChatStatus(r.chat))
}

func (r *Root) flash(text string) {
	r.status.SetText(text)
}

func (r *Root) openModal(name string, p tview.Primitive, w, h int) {
	r.modal = name
	r.pages.AddAndSwitchToPage(name, center(w, h, p), true)
	r.pages.ShowPage("main")
	r.pages.SendToFront(name)
}

func (r *Root) closeModal() {
	if r.modal == "" {
		return
	}
	r.pages.RemovePage(r.modal)
	r.modal = ""
	r.pages.SwitchToPage("main")
	r.app.SetFocus(r.screens)
}

// ShowScreen implements app.QuizView.
func (r *Root) ShowScreen(screen domain.Screen) {
	r.queue(func() {
		r.screens.SwitchToPage(string(screen))
		if !r.chatInput.HasFocus() && r.modal == "" {
			r.app.SetFocus(r.screens)
		}
	})
}

func (r *Root) HighlightNav(index int) {
	r.queue(func() {
		r.nav = index
		r.refreshHeader()
	})
}

func (r *Root) ShowQuestion(q domain.Question) {
	r.queue(func() {
		r.question.SetText(tview.Escape(q.Text))
		r.feedback.SetText("")
		r.optionTexts = append([]string(nil), q.Options...)
		r.options.Clear()
		for i, opt := range q.Options {
			index := i
			r.options.AddItem(strconv.Itoa(i+1)+". "+tview.Escape(opt), "", 0, func() {
				r.do(func(ctx context.Context) error { return r.tab.Quiz.SubmitAnswer(ctx, index) })
			})
		}
	})
}

func (r *Root) ShowProgress(score, number, total int) {
	r.queue(func() { r.progress.SetText(renderProgress(score, number, total)) })
}

func (r *Root) ShowScore(score int) {
	r.queue(func() {
		text := r.progress.GetText(false)
		if i := strings.Index(text, " | "); i >= 0 {
			r.progress.SetText("Score: " + strconv.Itoa(score) + text[i:])
			return
		}
		r.progress.SetText("Score: " + strconv.Itoa(score))
	})
}

func (r *Root) MarkOption(index int, correct bool) {
	r.queue(func() {
		if index < 0 || index >= len(r.optionTexts) {
			return
		}
		color := "[red]"
		if correct {
			color = "[green]"
		}
		r.options.SetItemText(index, color+strconv.Itoa(index+1)+". "+tview.Escape(r.optionTexts[index])+"[-]", "")
	})
}

func (r *Root) ShowFeedback(correct bool, message string) {
	r.queue(func() {
		color := "[red]"
		if correct {
			color = "[green]"
		}
		r.feedback.SetText(color + tview.Escape(message) + "[-]")
	})
}

func (r *Root) DisableOptions() {
	r.queue(func() {
		for i, text := range r.optionTexts {
			main, _ := r.options.GetItemText(i)
			if !strings.HasPrefix(main, "[") {
				r.options.SetItemText(i, "[gray]"+strconv.Itoa(i+1)+". "+tview.Escape(text)+"[-]", "")
			}
		}
	})
}

func (r *Root) ShowResultField(field app.ResultField, text string) {
	r.queue(func() {
		r.fields[field] = text
		r.results.SetText(renderResults(r.fields, r.passed))
	})
}

func (r *Root) ShowResultsHeader(passed bool) {
	r.queue(func() {
		r.passed = passed
		r.results.SetText(renderResults(r.fields, r.passed))
	})
}

func (r *Root) Notify(message string) {
	r.queue(func() { r.flash("[red]" + tview.Escape(message) + "[-]") })
}

// Confirm blocks the calling controller goroutine until the modal is answered.
func (r *Root) Confirm(prompt string) bool {
	answer := make(chan bool, 1)
	r.queue(func() {
		modal := tview.NewModal().
			SetText(prompt).
			AddButtons([]string{"Cancel", "OK"}).
			SetDoneFunc(func(_ int, label string) {
				r.closeModal()
				answer <- label == "OK"
			})
		r.openModal("confirm", modal, 60, 8)
		r.app.SetFocus(modal)
	})
	select {
	case ok := <-answer:
		return ok
	case <-r.ctx.Done():
		return false
	}
}

func (r *Root) Close() {
	r.app.Stop()
}

// ChatView.

func (r *Root) AppendMessage(m domain.ChatMessage) {
	r.queue(func() {
		if m.Role == domain.RoleAssistant {
			r.assistantIdx = append(r.assistantIdx, r.logCount)
		}
		r.logCount++
		r.logLines = append(r.logLines, renderMessage(m))
		r.chatLog.SetText(strings.Join(r.logLines, "\n\n"))
	})
}

func (r *Root) AppendSystem(text string) {
	r.queue(func() {
		r.logCount++
		r.logLines = append(r.logLines, renderSystem(text))
		r.chatLog.SetText(strings.Join(r.logLines, "\n\n"))
	})
}

func (r *Root) ClearLog() {
	r.queue(func() {
		r.logLines = nil
		r.assistantIdx = nil
		r.logCount = 0
		r.chatLog.Clear()
	})
}

func (r *Root) ScrollToBottom() {
	r.queue(func() { r.chatLog.ScrollToEnd() })
}

func (r *Root) ShowTyping(show bool) {
	r.queue(func() {
		r.chat.typing = show
		r.refreshChatStatus()
	})
}

func (r *Root) SetSendEnabled(enabled bool) {
	r.queue(func() {
		r.chat.sendEnabled = enabled
		r.refreshChatStatus()
	})
}

func (r *Root) SetInput(text string) {
	r.queue(func() { r.chatInput.SetText(text, true) })
}

func (r *Root) InsertNewline() {
	r.queue(func() { r.chatInput.SetText(r.chatInput.GetText()+"\n", true) })
}

func (r *Root) SetChatID(chatID string) {
	r.queue(func() { r.flash("conversation " + chatID) })
}

// OfferDownload saves the export next to the working directory.
func (r *Root) OfferDownload(filename, content string) {
	path := filepath.Join(r.exportDir, filename)
	err := os.WriteFile(path, []byte(content), 0o644)
	r.queue(func() {
		if err != nil {
			r.flash("[red]export failed: " + tview.Escape(err.Error()) + "[-]")
			return
		}
		r.flash("saved " + path)
	})
}

func (r *Root) ShowAttachments(labels []string) {
	r.queue(func() {
		r.chat.chips = labels
		r.refreshChatStatus()
	})
}

func (r *Root) SetVoiceActive(active bool) {
	r.queue(func() {
		r.chat.voice = active
		r.refreshChatStatus()
	})
}

func (r *Root) ShowTemperature(text string) {
	r.queue(func() {
		r.chat.temperature = text
		r.refreshChatStatus()
	})
}

func (r *Root) PulseCopy(_ int, active bool) {
	r.queue(func() {
		if active {
			r.flash("[green]copied[-]")
		} else {
			r.flash("")
		}
	})
}

// Glue views.

func (r *Root) ShowIssueModal(html string) {
	r.queue(func() {
		modal := tview.NewModal().
			SetText(stripTags(html)).
			AddButtons([]string{"Close"}).
			SetDoneFunc(func(int, string) { r.closeModal() })
		r.openModal("issue", modal, 80, 16)
		r.app.SetFocus(modal)
	})
}

func (r *Root) ShowNotifications(items []domain.Notification) {
	r.queue(func() {
		r.notifications = items
		r.refreshHeader()
	})
}

func (r *Root) SetAnimations(enabled bool) {
	r.queue(func() {
		if enabled {
			r.flash("animations on")
		} else {
			r.flash("animations off")
		}
	})
}

func (r *Root) Alert(message string) {
	r.queue(func() {
		modal := tview.NewModal().
			SetText(message).
			AddButtons([]string{"OK"}).
			SetDoneFunc(func(int, string) { r.closeModal() })
		r.openModal("alert", modal, 40, 7)
		r.app.SetFocus(modal)
	})
}

func (r *Root) showNotifications() {
	list := tview.NewList().ShowSecondaryText(false)
	for _, action := range notificationActions(r.notifications) {
		action := action
		list.AddItem(tview.Escape(action.label), "", 0, func() {
			r.closeModal()
			switch action.kind {
			case actionMarkRead:
				go r.tab.Notifications.MarkRead(action.id)
			case actionMarkAllRead:
				go r.tab.Notifications.MarkAllRead()
			case actionClearAll:
				go r.tab.Notifications.ClearAll()
			}
		})
	}
	body := tview.NewTextView().SetDynamicColors(true).SetText(tview.Escape(renderNotificationList(r.notifications)))
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, false).
		AddItem(list, 0, 1, true)
	layout.SetBorder(true).SetTitle(" Notifications ")
	r.openModal("notifications", layout, 70, 18)
	r.app.SetFocus(list)
}

func (r *Root) showSettings() {
	toggle := "Disable animations"
	if !r.tab.Settings.Animations() {
		toggle = "Enable animations"
	}
	modal := tview.NewModal().
		SetText("Settings").
		AddButtons([]string{toggle, "Clear cache", "Close"}).
		SetDoneFunc(func(_ int, label string) {
			r.closeModal()
			switch label {
			case "Disable animations":
				go r.tab.Settings.SetAnimations(false)
			case "Enable animations":
				go r.tab.Settings.SetAnimations(true)
			case "Clear cache":
				go r.tab.Settings.ClearCache()
			}
		})
	r.openModal("settings", modal, 60, 8)
	r.app.SetFocus(modal)
}

func (r *Root) showIssuePicker() {
	form := tview.NewForm()
	form.AddInputField("Issue id", "", 12, tview.InputFieldInteger, nil).
		AddButton("Open", func() {
			id := form.GetFormItemByLabel("Issue id").(*tview.InputField).GetText()
			r.closeModal()
			if id != "" {
				r.do(func(ctx context.Context) error { return r.tab.Forum.OpenIssue(ctx, id) })
			}
		}).
		AddButton("Cancel", func() { r.closeModal() })
	form.SetBorder(true).SetTitle(" Forum ")
	r.openModal("forum", form, 40, 7)
	r.app.SetFocus(form)
}

func center(w, h int, p tview.Primitive) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, h, 1, true).
			AddItem(nil, 0, 1, false), w, 1, true).
		AddItem(nil, 0, 1, false)
}

var _ app.TabView = (*Root)(nil)
