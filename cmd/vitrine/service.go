package main

import (
	"fmt"
	"log/slog"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/mkoziel/vitrine/pkg/app"
)

// program adapts the application loop to the service manager interface.
type program struct {
	configPath string
	errs       chan error
}

func (p *program) Start(service.Service) error {
	p.errs = make(chan error, 1)
	go func() {
		p.errs <- app.Run(app.RunParams{
			ConfigPath: p.configPath,
			Version:    version,
			LogLevel:   slog.LevelInfo,
		})
	}()
	return nil
}

func (p *program) Stop(service.Service) error {
	// app.Run exits on SIGTERM, which the service manager sends on stop.
	return nil
}

func newService(configPath string) (service.Service, error) {
	arguments := []string{"service", "run"}
	if configPath != "" {
		arguments = append(arguments, "--config", configPath)
	}
	return service.New(&program{configPath: configPath}, &service.Config{
		Name:        "vitrine",
		DisplayName: "Vitrine portfolio assistant",
		Description: "Retrieval-augmented conversational portfolio assistant",
		Arguments:   arguments,
	})
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage vitrine as a system service",
	}

	var configPath string
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	for _, action := range []string{"install", "uninstall", "start", "stop"} {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the system service", action),
			RunE: func(c *cobra.Command, _ []string) error {
				svc, err := newService(configPath)
				if err != nil {
					return err
				}
				if err := service.Control(svc, c.Use); err != nil {
					return err
				}
				fmt.Printf("Service %s: done\n", c.Use)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:    "run",
		Short:  "Run under the service manager",
		Hidden: true,
		RunE: func(*cobra.Command, []string) error {
			svc, err := newService(configPath)
			if err != nil {
				return err
			}
			return svc.Run()
		},
	})

	return cmd
}
