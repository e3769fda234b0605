package awaittree

import (
	"io/ioutil"
	"log"
)

// Logger is where environmental-anomaly warnings (poll after task
// migration, poll or drop without an ambient context) are written. It
// defaults to discarding output, and can be pointed at a real destination
// with SetLogger.
var Logger = log.New(ioutil.Discard, "awaittree: ", log.LstdFlags)

// SetLogger replaces the package-level Logger.
func SetLogger(l *log.Logger) {
	Logger = l
}
