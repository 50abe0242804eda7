package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/crystalgate/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Inspect scheduled announcements",
}

func init() {
	scheduleCmd.AddCommand(scheduleListCmd)
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured schedules with their next run",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Schedules) == 0 {
			fmt.Println("No scheduled announcements.")
			return nil
		}

		now := time.Now()

		fmt.Printf("%-16s %-20s %-16s %-20s %s\n", "Name", "Schedule", "Chat", "Next Run", "Text")
		fmt.Println(repeatStr("-", 96))
		for i, s := range cfg.Schedules {
			name := s.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			next := "invalid spec"
			if sched, err := schedule.ParseSpec(s.Spec); err == nil {
				next = sched.Next(now).Format("2006-01-02 15:04")
			}
			chat := fmt.Sprintf("%d", s.ChatID)
			if s.ThreadID != 0 {
				chat += fmt.Sprintf("/%d", s.ThreadID)
			}
			fmt.Printf("%-16s %-20s %-16s %-20s %s\n",
				truncStr(name, 15), truncStr(s.Spec, 19), chat, next, truncStr(s.Text, 30))
		}
		return nil
	},
}
