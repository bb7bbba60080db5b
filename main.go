package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type runState string

const (
	stateInit           runState = "Init"
	stateFetchingGroups runState = "FetchingGroups"
	stateFetchingUsers  runState = "FetchingUsers"
	stateAugmenting     runState = "Augmenting"
	stateWriting        runState = "Writing"
	stateNotifying      runState = "Notifying"
	stateDone           runState = "Done"
	stateFailed         runState = "Failed"
)

var reportOUs []string
var reportGroups []string
var reportDir string

func reportInitialize() error {
	var result *multierror.Error

	reportDir = viper.GetString("report.dir")
	if len(reportDir) == 0 {
		reportDir = "."
	}
	reportOUs = viper.GetStringSlice("report.ous")
	reportGroups = viper.GetStringSlice("report.groups")

	if len(reportOUs) == 0 {
		result = multierror.Append(result, fmt.Errorf("in the report section, the config file is missing: ous"))
	}
	if len(reportGroups) == 0 {
		result = multierror.Append(result, fmt.Errorf("in the report section, the config file is missing: groups"))
	}
	return result.ErrorOrNil()
}

func main() {
	//Read command-line arguments
	var configDir string
	var configFile string
	flag.StringVar(&configDir, "c", ".", "Specify a configuration directory.")
	flag.StringVar(&configFile, "f", "default", "Specify the configuration file name.")
	flag.Parse()

	//Setup configutation manager
	viper.SetEnvPrefix("groupreport")
	viper.BindEnv("ldap_password")
	viper.BindEnv("mail_password")
	viper.SetConfigName(configFile)
	viper.AddConfigPath(configDir)
	cfgErr := viper.ReadInConfig()
	if cfgErr != nil {
		log.Error(cfgErr)
		panic(fmt.Errorf("fatal error config file: %s ", cfgErr))
	}

	//Setup log file
	logConfig := viper.GetStringMapString("log")

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		DisableColors: true,
	})

	if len(logConfig) > 0 {
		if len(logConfig["file"]) > 0 {
			logFile, logErr := os.OpenFile(logConfig["file"], os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
			if logErr != nil {
				log.Errorf("Error log file: %s \n", logErr)
			}
			defer logFile.Close()
			log.SetOutput(logFile)
		}
		if len(logConfig["level"]) > 0 {
			level, logErr := log.ParseLevel(logConfig["level"])
			if logErr != nil {
				log.Error(logErr)
			} else {
				log.SetLevel(level)
			}
		}
	}

	runID := uuid.New().String()
	start := time.Now()
	runErr := run(runID)
	// The completion entry is unconditional so every run leaves a trace.
	fields := log.Fields{"run_id": runID, "duration": time.Since(start).String()}
	if runErr != nil {
		setState(runID, stateFailed)
		fields["error"] = runErr
		log.WithFields(fields).Error("Run completed with failure.")
		MailFailureAlert(runErr)
		os.Exit(1)
	}
	log.WithFields(fields).Info("Run completed.")
}

func setState(runID string, state runState) {
	log.WithFields(log.Fields{"run_id": runID, "state": state}).Info("State change.")
}

// run drives one report: resolve group memberships, fetch users, augment,
// write the spreadsheet, mail it. Every collaborator error is fatal and
// carries its stage name back to main for the failure-alert dispatch.
func run(runID string) error {
	setState(runID, stateInit)
	if err := LDAPinitialize(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if err := MailInitialize(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if err := reportInitialize(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	con, err := LDAPgetConnection()
	if err != nil {
		return fmt.Errorf("directory connect: %w", err)
	}
	defer con.Close()

	setState(runID, stateFetchingGroups)
	index, err := BuildMembershipIndex(reportGroups, func(group string) ([]string, error) {
		return LDAPgetGroupMembers(group, con)
	})
	if err != nil {
		return fmt.Errorf("directory query: %w", err)
	}

	setState(runID, stateFetchingUsers)
	users, err := LDAPgetUsersInOUs(reportOUs, con)
	if err != nil {
		return fmt.Errorf("directory query: %w", err)
	}

	setState(runID, stateAugmenting)
	augmented := AugmentUsers(users, index)

	setState(runID, stateWriting)
	path := reportFilename(reportDir)
	if err := WriteReport(augmented, index.GroupNames(), path); err != nil {
		return fmt.Errorf("report write: %w", err)
	}

	setState(runID, stateNotifying)
	if err := MailReport(path, len(augmented), reportOUs); err != nil {
		return fmt.Errorf("notification: %w", err)
	}

	setState(runID, stateDone)
	return nil
}
