package main

import (
	"fmt"
	"io"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/cli"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/spf13/cobra"
)

func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("session", "s", "", "Session ID; variables and session storage persist per session")
	cmd.Flags().String("attrs", "", "Host attributes as a JSON object")
	cmd.Flags().String("data", "", "Extra scope fields as a JSON object")
}

func readScope(cmd *cobra.Command, component string) (tendril.Scope, error) {
	scope := tendril.Scope{Component: component}
	scope.SessionID, _ = cmd.Flags().GetString("session")

	var err error
	if scope.Attributes, err = objectFlag(cmd, "attrs"); err != nil {
		return scope, err
	}
	if scope.Data, err = objectFlag(cmd, "data"); err != nil {
		return scope, err
	}
	return scope, nil
}

func objectFlag(cmd *cobra.Command, name string) (map[string]value.Value, error) {
	v, err := valueFlag(cmd, name)
	if err != nil || v.IsNull() {
		return nil, err
	}
	fields, ok := v.AsObject()
	if !ok {
		return nil, fmt.Errorf("--%s must be a JSON object", name)
	}
	return fields, nil
}

func valueFlag(cmd *cobra.Command, name string) (value.Value, error) {
	text, _ := cmd.Flags().GetString(name)
	if text == "" {
		return value.Null(), nil
	}
	v, err := value.Decode(text, value.DecodeOptions{})
	if err != nil {
		return value.Null(), fmt.Errorf("error parsing --%s JSON: %w", name, err)
	}
	return v, nil
}

func printValue(w io.Writer, v value.Value) error {
	text, err := value.Encode(v, 2)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, text)
	return err
}

// loadComponent reads and compiles a component without requiring LoadAll.
func loadComponent(cmd *cobra.Command, st *cli.Stack, name string) (*domain.Component, error) {
	if c, ok := st.Engine.Component(name); ok {
		return c, nil
	}
	raw, err := st.Engine.Loader().GetComponent(cmd.Context(), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrComponentNotFound, name)
	}
	return st.Engine.LoadDefinition(name, raw)
}
