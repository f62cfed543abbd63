package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/drone/drone-junit/plugin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(formatter))

	if envfile := os.Getenv("PLUGIN_ENV_FILE"); envfile != "" {
		if err := godotenv.Load(envfile); err != nil {
			logrus.WithError(err).WithField("File", envfile).Fatalln("Failed to load env file")
		}
	}

	var args plugin.Args
	if err := envconfig.Process("", &args); err != nil {
		logrus.Fatalln(err)
	}

	setLevel(args.Level)

	if err := plugin.ValidateInputs(args); err != nil {
		logrus.Fatalln(err)
	}

	if err := plugin.Exec(context.Background(), args); err != nil {
		logrus.Fatalln(err)
	}
}

func setLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// formatter prints the message followed by its fields in key order.
type formatter struct{}

func (*formatter) Format(entry *logrus.Entry) ([]byte, error) {
	line := entry.Message
	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]string, len(keys))
		for i, k := range keys {
			fields[i] = fmt.Sprintf("%s=%v", k, entry.Data[k])
		}
		line += " [" + strings.Join(fields, " ") + "]"
	}
	return []byte(line + "\n"), nil
}
