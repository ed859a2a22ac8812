package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/answerdesk/answerdesk/ingest"
	"github.com/answerdesk/answerdesk/server"
	"github.com/answerdesk/answerdesk/server/profile"
)

var rootCmd = &cobra.Command{
	Use:   "answerdesk",
	Short: "WhatsApp RAG chatbot server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := profile.Load()
		if err != nil {
			return err
		}
		if err := p.ValidateServe(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := server.NewServer(ctx, p)
		if err != nil {
			return err
		}
		if err := s.Start(ctx); err != nil {
			return err
		}
		s.Shutdown(context.Background())
		return nil
	},
}

var (
	ingestDir   string
	ingestText  string
	ingestSrc   string
	ingestClear bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Load documents into the knowledge base",
	Long: `Chunks documents and indexes them for retrieval.
Sources may be file arguments, a directory (--dir), or raw text (--text).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load()
		if err != nil {
			return err
		}
		if !ingestClear && len(args) == 0 && ingestDir == "" && ingestText == "" {
			ingestDir = p.KnowledgeBasePath
		}

		ctx := cmd.Context()
		kb, err := server.NewKnowledgeBase(p)
		if err != nil {
			return err
		}
		if ingestClear {
			if err := kb.Clear(ctx); err != nil {
				return err
			}
			fmt.Println("knowledge base cleared")
			if len(args) == 0 && ingestDir == "" && ingestText == "" {
				return nil
			}
		}

		ig := ingest.New(kb, ingest.NewCommandExtractor(ingest.DefaultCommands()), p.ChunkSize, p.ChunkOverlap)
		total := 0
		for _, path := range args {
			n, err := ig.IngestFile(ctx, path)
			if err != nil {
				return err
			}
			total += n
		}
		if ingestDir != "" {
			n, err := ig.IngestDir(ctx, ingestDir)
			if err != nil {
				return err
			}
			total += n
		}
		if ingestText != "" {
			n, err := ig.IngestText(ctx, ingestText, ingestSrc)
			if err != nil {
				return err
			}
			total += n
		}

		fmt.Printf("indexed %d chunks (%d total in knowledge base)\n", total, kb.Count())
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "ingest every supported file under this directory")
	ingestCmd.Flags().StringVar(&ingestText, "text", "", "ingest raw text")
	ingestCmd.Flags().StringVar(&ingestSrc, "source", "", "source label for --text")
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "clear the knowledge base first")
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
