//go:build mssql || all_adapters

package main

import (
	_ "github.com/pulse-labs/pulse-assistant/pkg/warehouse/mssql"
)
