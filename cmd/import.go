package cmd

import (
	"fmt"
	"os"

	"github.com/abhisek/classmate/internal/store"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <course.json>...",
	Short: "Import or replace courses from JSON documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			doc, err := store.ParseCourse(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := e.store.ImportCourse(cmd.Context(), doc); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			lessons := 0
			for _, m := range doc.Modules {
				lessons += len(m.Lessons)
			}
			e.log.Info("course imported", "course_id", doc.ID, "modules", len(doc.Modules), "lessons", lessons)
			fmt.Printf("Imported %s (%s): %d modules, %d lessons\n", doc.Title, doc.ID, len(doc.Modules), lessons)
		}
		return nil
	},
}
