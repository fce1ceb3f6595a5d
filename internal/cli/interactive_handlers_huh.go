package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/koopa0/nlqagent/internal/cli/ui"
	"github.com/koopa0/nlqagent/internal/handler"
)

// addConnectionWizard walks the user through choosing a backend kind and
// filling in its fields, using the registry's FieldSchema to build the form
// without any kind-specific CLI code.
func (c *CLI) addConnectionWizard(ctx context.Context) error {
	kinds := c.registry.SupportedKinds()
	if len(kinds) == 0 {
		ui.Warning.Println("no handler kinds are registered")
		return nil
	}

	var kind string
	var name string

	kindOptions := make([]huh.Option[string], 0, len(kinds))
	for _, k := range kinds {
		kindOptions = append(kindOptions, huh.NewOption(string(k), string(k)))
	}

	intro := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Connection name").
				Placeholder("my-database").
				Validate(requiredString).
				Value(&name),
			huh.NewSelect[string]().
				Title("Backend kind").
				Options(kindOptions...).
				Value(&kind),
		),
	)
	if err := intro.Run(); err != nil {
		return err
	}

	fields := c.registry.Describe(handler.Kind(kind))

	stringVals := make(map[string]*string, len(fields))
	boolVals := make(map[string]*bool, len(fields))

	huhFields := make([]huh.Field, 0, len(fields))
	for _, f := range fields {
		f := f
		switch f.Widget {
		case handler.WidgetBool:
			v := new(bool)
			boolVals[f.Name] = v
			huhFields = append(huhFields, huh.NewConfirm().Title(f.Label).Value(v))

		case handler.WidgetSelect:
			v := new(string)
			stringVals[f.Name] = v
			options := make([]huh.Option[string], 0, len(f.Options))
			for _, opt := range f.Options {
				options = append(options, huh.NewOption(opt, opt))
			}
			huhFields = append(huhFields, huh.NewSelect[string]().Title(f.Label).Options(options...).Value(v))

		case handler.WidgetPassword:
			v := new(string)
			stringVals[f.Name] = v
			huhFields = append(huhFields, huh.NewInput().
				Title(f.Label).
				EchoMode(huh.EchoModePassword).
				Validate(fieldValidator(f)).
				Value(v))

		case handler.WidgetTextarea:
			v := new(string)
			stringVals[f.Name] = v
			huhFields = append(huhFields, huh.NewText().Title(f.Label).Lines(3).Value(v))

		default:
			v := new(string)
			stringVals[f.Name] = v
			huhFields = append(huhFields, huh.NewInput().
				Title(f.Label).
				Validate(fieldValidator(f)).
				Value(v))
		}
	}

	if len(huhFields) > 0 {
		form := huh.NewForm(huh.NewGroup(huhFields...))
		if err := form.Run(); err != nil {
			return err
		}
	}

	cfg := handler.ConnectionConfig{
		ID:   uuid.NewString(),
		Name: name,
		Kind: handler.Kind(kind),
	}
	for fieldName, v := range stringVals {
		if err := applyFieldValue(&cfg, fieldName, *v); err != nil {
			return err
		}
	}
	for fieldName, v := range boolVals {
		if err := applyFieldValue(&cfg, fieldName, strconv.FormatBool(*v)); err != nil {
			return err
		}
	}

	stop := ui.ShowProgress("Testing connection")
	result, err := c.connections.Test(ctx, cfg)
	stop()
	if err != nil {
		ui.Warning.Printf("connection test failed: %v\n", err)
		if !ui.Confirm("Save it anyway?", false) {
			return nil
		}
	} else if !result.Success {
		ui.Warning.Printf("connection test reported an error: %s\n", result.Error)
		if !ui.Confirm("Save it anyway?", false) {
			return nil
		}
	} else {
		ui.Success.Println("connection test succeeded")
	}

	id, err := c.connections.Create(ctx, cfg)
	if err != nil {
		return err
	}
	ui.Success.Printf("connection %s saved\n", id)
	return nil
}

// fieldValidator wraps a FieldSchema's required flag and optional custom
// Validate func into a single huh-compatible validator.
func fieldValidator(f handler.FieldSchema) func(string) error {
	return func(value string) error {
		if f.Required && value == "" {
			return fmt.Errorf("%s is required", f.Label)
		}
		if f.Validate != nil {
			return f.Validate(value)
		}
		return nil
	}
}

func requiredString(value string) error {
	if value == "" {
		return fmt.Errorf("this field is required")
	}
	return nil
}

// applyFieldValue assigns value into cfg's field named by the FieldSchema
// name conventions every handler's describe() uses.
func applyFieldValue(cfg *handler.ConnectionConfig, name, value string) error {
	switch name {
	case "host":
		cfg.Host = value
	case "port":
		if value == "" {
			return nil
		}
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", value, err)
		}
		cfg.Port = port
	case "database":
		cfg.Database = value
	case "username":
		cfg.Username = value
	case "password":
		cfg.Password = value
	case "ssl":
		cfg.SSL = value == "true"
	case "schema":
		cfg.Schema = value
	case "connectionString":
		cfg.ConnectionString = value
	case "authSource":
		cfg.AuthSource = value
	case "filePath":
		cfg.FilePath = value
	case "mode":
		cfg.Mode = value
	case "base_url":
		cfg.BaseURL = value
	case "api_key":
		cfg.APIKey = value
	default:
		return fmt.Errorf("unrecognised connection field %q", name)
	}
	return nil
}
