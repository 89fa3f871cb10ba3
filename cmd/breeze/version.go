package main

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
)

var (
	release   = "UNKNOWN"
	buildDate = "UNKNOWN"
	gitHash   = "UNKNOWN"
)

type versionInfo struct {
	Service   string `json:"service"`
	Release   string `json:"release"`
	BuildDate string `json:"buildDate"`
	GitHash   string `json:"gitHash"`
}

func printVersion() {
	info := versionInfo{
		Service:   "breeze",
		Release:   release,
		BuildDate: buildDate,
		GitHash:   gitHash,
	}
	if err := sonic.ConfigStd.NewEncoder(os.Stdout).Encode(info); err != nil {
		fmt.Printf("failed to encode version info: %v\n", err)
	}
}
