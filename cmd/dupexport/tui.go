package main

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"dupexport/internal/eventbus"
	"dupexport/internal/ui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	uiModel := ui.NewModel(a.workspace(), a.controller(), a.cfg)
	uiModel.SetContext(a.commandContext(cmd.Context(), "tui"))
	p := tea.NewProgram(uiModel, tea.WithAltScreen())
	uiModel.SetProgram(p)

	done := make(chan struct{})
	defer close(done)
	forwardEvents(a.bus, done, func(e eventbus.DomainEvent) {
		p.Send(ui.EventMsg{Event: e})
	})

	_, err = p.Run()
	return err
}

// forwardEvents hands error events to send on a single goroutine until done
// is closed. eventChan is never closed; handlers still running after done
// drop their event.
func forwardEvents(bus eventbus.EventBus, done <-chan struct{}, send func(eventbus.DomainEvent)) {
	eventChan := make(chan eventbus.DomainEvent, 100)
	bus.Subscribe(eventbus.EventError, func(e eventbus.DomainEvent) {
		select {
		case <-done:
			return
		default:
		}
		select {
		case eventChan <- e:
		default:
			slog.Warn("event channel full, dropping event", "event", e.Type())
		}
	})
	go func() {
		for {
			select {
			case <-done:
				return
			case event := <-eventChan:
				send(event)
			}
		}
	}()
}
