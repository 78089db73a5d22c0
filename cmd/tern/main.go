package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	cfgFile string
	red     = color.New(color.FgRed).SprintfFunc()
)

var rootCmd = &cobra.Command{
	Use:           "tern",
	Short:         "Compile tern source code to bytecode",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		processGlobalFlags()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if isTerminalIO() {
			return runRepl(cmd.Context(), os.Stdin, os.Stdout)
		}
		return cmd.Help()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tern.yaml)")
	pf.StringP("code", "c", "", "Code to compile")
	pf.Bool("stdin", false, "Read code from stdin")
	pf.Bool("no-color", false, "Disable colored output")
	pf.BoolP("verbose", "v", false, "Log compiler events to stderr")
	pf.Int("max-function-depth", 0, "Deepest allowed nesting of functions")
	pf.Int("max-args", 0, "Maximum arguments of a function or call")
	pf.Int("max-keyword-args", 0, "Maximum keyword arguments of a call")
	pf.Int("max-return-values", 0, "Maximum values of a return or yield")
	pf.Int("max-stack-depth", 0, "Maximum operand stack depth of a function")
	pf.Int("max-parse-depth", 0, "Maximum parser recursion depth")
	if err := viper.BindPFlags(pf); err != nil {
		fatal(err)
	}

	rootCmd.AddCommand(compileCmd, disCmd, astCmd, tokensCmd, replCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fatal(err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tern")
	}
	viper.SetEnvPrefix("tern")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fatal(err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}
