/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/allbin/go-serprog"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serprog",
	Short: "Drive serprog SPI flash programmers over a serial link",
	Long: `serprog talks the Serial Flasher Protocol to programmers such as
pico-serprog, stm32-vserprog or an Arduino running serprog firmware.

The programmer device is taken from --device, SERPROG_DEVICE or the
config file ($HOME/.serprog.yaml). Without one, the platform default
is used (/dev/ttyACM0 on Linux). Pass --device auto to pick the best
scoring serial port instead.

Examples:
  serprog list --table
  serprog probe
  serprog clock 8MHz
  serprog spi 9f --read 3
  serprog flash id
  serprog console`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Commands that hold the programmer return their errors so deferred cleanup
// runs before the process exits.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fail("%v", err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := serprog.DefaultConfig()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serprog.yaml)")
	flags.StringP("device", "d", "", "programmer device, or \"auto\" to detect (default: "+serprog.DefaultDeviceName+")")
	flags.IntP("baud", "b", defaults.BaudRate, "Baud rate")
	flags.Duration("read-timeout", defaults.ReadTimeout, "Per-read timeout, in steps of 100ms")
	flags.Int("read-retries", defaults.ReadRetry.MaxEmpty, "Consecutive empty reads before the programmer is unresponsive")
	flags.Duration("read-retry-delay", defaults.ReadRetry.Delay, "Pause between empty reads")
	flags.Int("write-retries", defaults.WriteRetry.MaxEmpty, "Consecutive empty writes before the programmer is unresponsive")
	flags.Duration("write-retry-delay", defaults.WriteRetry.Delay, "Pause between empty writes")
	flags.Bool("sync", true, "Synchronize with SYNCNOP after opening the programmer")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	// glog flags (-v, --logtostderr, ...); cobra merges pflag.CommandLine
	// into the root persistent flags
	flag.Set("logtostderr", "true")
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".serprog")
	}

	viper.SetEnvPrefix("serprog")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		glog.V(1).Infof("Using config file: %s", viper.ConfigFileUsed())
	}
}

// portOptions builds transport options from flags, env and config
func portOptions() []serprog.Option {
	return []serprog.Option{
		serprog.WithBaudRate(viper.GetInt("baud")),
		serprog.WithReadTimeout(viper.GetDuration("read-timeout")),
		serprog.WithReadRetry(viper.GetInt("read-retries"), viper.GetDuration("read-retry-delay")),
		serprog.WithWriteRetry(viper.GetInt("write-retries"), viper.GetDuration("write-retry-delay")),
	}
}

// deviceName resolves the configured device
func deviceName() string {
	switch device := viper.GetString("device"); device {
	case "":
		return serprog.DefaultDevice()
	case "auto":
		return serprog.DetectDevice()
	default:
		return device
	}
}

// openProgrammer opens the configured device and, unless --sync=false,
// synchronizes with it.
func openProgrammer() (*serprog.Programmer, error) {
	device := deviceName()
	glog.V(1).Infof("opening %s", device)

	ch, err := serprog.Open(device, portOptions()...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}

	prog := serprog.NewProgrammer(ch)
	if viper.GetBool("sync") {
		if err := prog.Synchronize(); err != nil {
			prog.Close()
			return nil, err
		}
	}
	return prog, nil
}

// fail prints err in the error style and exits
func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("✗"), fmt.Sprintf(format, args...))
	glog.Flush()
	os.Exit(1)
}
