package metrics

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type Logger interface {
	Log(info *RunInfo)
}

type StdoutLogger struct{}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{}
}

func (l *StdoutLogger) Log(info *RunInfo) {
	infoStr, err := info.ToJSON()
	if err == nil {
		log.Print(infoStr)
	} else {
		log.Printf("StdoutLogger: error: %v", err)
	}
}

const defaultMaxLogFileSize = 1024 * 1024 * 1024
const defaultMaxLogFiles = 10

// FileLogger appends one JSON line per run to a log file under
// LogDir, rotating by size. Runs are one-shot so writes happen
// inline, no queueing.
type FileLogger struct {
	LogDir         string
	MaxLogFileSize int64
	MaxLogFiles    int
	Verbose        bool
}

func NewFileLogger(logDir string, maxLogFileSize int64, maxLogFiles int, verbose bool) *FileLogger {
	if maxLogFileSize <= 0 {
		maxLogFileSize = defaultMaxLogFileSize
	}
	if maxLogFiles <= 0 {
		maxLogFiles = defaultMaxLogFiles
	}
	return &FileLogger{
		LogDir:         logDir,
		MaxLogFileSize: maxLogFileSize,
		MaxLogFiles:    maxLogFiles,
		Verbose:        verbose,
	}
}

func (l *FileLogger) Log(info *RunInfo) {
	infoStr, err := info.ToJSON()
	if err != nil {
		log.Printf("FileLogger: info.ToJSON() error: %v", err)
		return
	}

	f, err := l.openLogFile()
	if err != nil {
		log.Printf("FileLogger: log open error: %v", err)
		return
	}
	f, err = l.tryRotateLogFile(f)
	if err != nil {
		return
	}
	defer f.Close()

	if _, err := f.WriteString(infoStr); err != nil {
		log.Printf("FileLogger: write error: %v", err)
		return
	}
	f.Sync()
}

func (l *FileLogger) openLogFile() (*os.File, error) {
	logFilePath := path.Join(l.LogDir, "log")
	return os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func (l *FileLogger) tryRotateLogFile(currFile *os.File) (*os.File, error) {
	info, err := currFile.Stat()
	if err != nil {
		log.Printf("FileLogger: log rotation error: %v", err)
		return currFile, nil
	}

	if info.Size() >= l.MaxLogFileSize {
		currLogFilePath := path.Join(l.LogDir, "log")
		var rotatedLogFilePath string
		for i := 0; i < l.MaxLogFiles; i++ {
			filePath := path.Join(l.LogDir, fmt.Sprintf("log.%d", i))
			if _, err := os.Stat(filePath); os.IsNotExist(err) {
				rotatedLogFilePath = filePath
				break
			}
		}

		if len(rotatedLogFilePath) == 0 {
			files, err := ioutil.ReadDir(l.LogDir)
			if err != nil {
				log.Printf("FileLogger: log rotation error: %v", err)
				return currFile, nil
			}

			var oldestFile os.FileInfo
			oldestTime := time.Now()
			for _, file := range files {
				if !file.Mode().IsRegular() {
					continue
				}

				fileName := filepath.Base(file.Name())
				fn := strings.TrimSuffix(fileName, path.Ext(fileName))

				if fn != "log" {
					continue
				}

				if file.ModTime().Before(oldestTime) {
					oldestFile = file
					oldestTime = file.ModTime()
				}
			}

			if oldestFile != nil {
				rotatedLogFilePath = path.Join(l.LogDir, oldestFile.Name())
			} else {
				rotatedLogFilePath = path.Join(l.LogDir, "log.0")
			}

			if l.Verbose {
				log.Printf("FileLogger: maximum number of log files reached, overwriting %s", rotatedLogFilePath)
			}
			err = os.Remove(rotatedLogFilePath)
			if err != nil {
				log.Printf("FileLogger: log rotation error: %v", err)
				return currFile, nil
			}
		}

		currFile.Close()
		err := os.Rename(currLogFilePath, rotatedLogFilePath)
		if err != nil {
			log.Printf("FileLogger: log rotation error: %v", err)
			return currFile, nil
		}

		if l.Verbose {
			log.Printf("FileLogger: log file rotated: %v", rotatedLogFilePath)
		}

		f, err := l.openLogFile()
		if err != nil {
			log.Printf("FileLogger: log rotation error: %v", err)
		}
		return f, err
	}

	return currFile, nil
}
