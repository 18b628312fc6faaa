package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/almeera/ultah/internal/channels"
	"github.com/almeera/ultah/internal/config"
	"github.com/almeera/ultah/internal/llm"
	"github.com/spf13/cobra"
)

func TestStartRunsUntilCanceledAndRemovesPIDFile(t *testing.T) {
	homeDir := createTestHome(t)
	writeValidConfig(t, homeDir)

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"start"})
	ctx, cancel := context.WithCancel(context.Background())
	cmd.SetContext(ctx)

	pidPath := filepath.Join(homeDir, "ultah.pid")
	sawPID := make(chan bool, 1)
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if _, err := os.Stat(pidPath); err == nil {
				sawPID <- true
				cancel()
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		sawPID <- false
		cancel()
	}()

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute start: %v", err)
	}
	if !<-sawPID {
		t.Fatalf("expected pid file %q while running", pidPath)
	}
	if _, err := os.Stat(pidPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected pid file removed, stat err=%v", err)
	}
}

func TestParseDateFlag(t *testing.T) {
	homeDir := createTestHome(t)
	writeValidConfig(t, homeDir)
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	clock, err := parseDateFlag("2026-02-28", cfg)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	got := clock()
	if got.Year() != 2026 || got.Month() != time.February || got.Day() != 28 || got.Location().String() != "UTC" {
		t.Fatalf("unexpected pinned clock %v", got)
	}

	wall, err := parseDateFlag("", cfg)
	if err != nil || wall == nil {
		t.Fatalf("expected wall clock, got err=%v", err)
	}
	if _, err := parseDateFlag("tomorrow", cfg); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestPassTriggerRunNowOutlivesCallerContext(t *testing.T) {
	homeDir := createTestHome(t)
	writeValidConfig(t, homeDir)
	leads := "Nama,No. Whatsapp,Tanggal lahir\n" +
		"Dewi Lestari,08123456789,09/12/1990\n" +
		"Sari,0811111,09/12/1992\n"
	if err := os.WriteFile(filepath.Join(homeDir, "leads.csv"), []byte(leads), 0o644); err != nil {
		t.Fatalf("write leads: %v", err)
	}
	useFakeProvider(t, &fakeProvider{resp: &llm.ChatResponse{Content: "Selamat ulang tahun!"}})

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetContext(context.Background())

	trigger, err := newPassTrigger(cmd, cfg)
	if err != nil {
		t.Fatalf("new pass trigger: %v", err)
	}
	trigger.runner.Now = func() time.Time { return time.Date(2026, time.December, 9, 8, 0, 0, 0, time.UTC) }

	reqCtx, cancelReq := context.WithCancel(context.Background())
	defer cancelReq()
	var sent []string
	trigger.runner.Sender = channels.SenderFunc(func(ctx context.Context, to, _ string) channels.Delivery {
		sent = append(sent, to)
		// The caller goes away after the first delivery.
		cancelReq()
		if ctx.Err() != nil {
			return channels.Delivery{Status: channels.StatusFailed, Response: ctx.Err().Error()}
		}
		return channels.Delivery{Status: channels.StatusSent, Response: "ok"}
	})

	summary, err := trigger.runNow(reqCtx)
	if err != nil {
		t.Fatalf("run now: %v", err)
	}
	if len(sent) != 2 || summary.Count(channels.StatusSent) != 2 {
		t.Fatalf("expected both greetings sent, sent=%v summary=%+v", sent, summary)
	}
	if summary.ReportPath == "" {
		t.Fatalf("expected report to be written")
	}
}
