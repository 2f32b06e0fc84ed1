package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/stackit/internal/services"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a browser localStorage dump into the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		force, _ := cmd.Flags().GetBool("force")
		blob, err := openBlobStore(config, logger)
		if err != nil {
			return err
		}
		defer blob.Close()
		n, err := importDump(cmd.Context(), blob, file, force, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions\n", n)
		return nil
	},
}

// legacyDump is a localStorage export. Each value is either the stored
// string (JSON encoded once more) or the raw JSON it holds.
type legacyDump struct {
	Questions      json.RawMessage `json:"questions"`
	LikedQuestions json.RawMessage `json:"likedQuestions"`
}

var errStoreNotEmpty = errors.New("store is not empty; rerun with --force to overwrite")

func importDump(ctx context.Context, blob keyedStore, path string, force bool, logger *slog.Logger) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read dump: %w", err)
	}
	var dump legacyDump
	if err := json.Unmarshal(b, &dump); err != nil {
		return 0, fmt.Errorf("parse dump: %w", err)
	}
	questions, err := unwrapStored(dump.Questions)
	if err != nil {
		return 0, fmt.Errorf("decode questions entry: %w", err)
	}
	if questions == "" {
		return 0, errors.New("dump has no questions entry")
	}
	n, err := services.CheckSnapshot(questions)
	if err != nil {
		return 0, fmt.Errorf("questions rejected: %w", err)
	}

	if !force {
		keys, err := blob.Keys(ctx)
		if err != nil {
			return 0, fmt.Errorf("list keys: %w", err)
		}
		if len(keys) > 0 {
			logger.Warn("import target not empty", slog.Int("keys", len(keys)))
			return 0, errStoreNotEmpty
		}
	}
	if err := blob.Save(ctx, services.QuestionsKey, questions); err != nil {
		return 0, fmt.Errorf("save questions: %w", err)
	}

	liked, err := unwrapStored(dump.LikedQuestions)
	if err == nil && liked != "" {
		if cerr := services.CheckLikedSet(liked); cerr != nil {
			logger.Warn("skipping likedQuestions", slog.Any("err", cerr))
		} else if err := blob.Save(ctx, services.LikedQuestionsKey, liked); err != nil {
			return 0, fmt.Errorf("save liked questions: %w", err)
		}
	}
	logger.Info("legacy import complete", slog.String("file", path), slog.Int("questions", n))
	return n, nil
}

func unwrapStored(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(raw), nil
}
