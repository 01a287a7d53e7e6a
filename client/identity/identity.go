// Package identity supplies the stable 128-bit agent identifier that every
// submitted measurement carries.
package identity

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nodewatch/nodewatch/share/logger"
)

const idFileName = "agent_id"

// appKey salts the machine id so nodewatch's derived identifier cannot be
// correlated with other software using the same OS machine id.
const appKey = "nodewatch"

// GetOrCreateID returns the agent's persistent identifier. The value is kept
// in a file under dataDir so it survives restarts; on first run it is derived
// from the OS machine id when available, falling back to a random UUID.
func GetOrCreateID(dataDir string, log *logger.Logger) (uuid.UUID, error) {
	idFile := filepath.Join(dataDir, idFileName)

	data, err := os.ReadFile(idFile)
	if err == nil {
		id, parseErr := uuid.Parse(strings.TrimSpace(string(data)))
		if parseErr == nil {
			return id, nil
		}
		log.Errorf("ignoring unparsable id file %s: %v", idFile, parseErr)
	} else if !os.IsNotExist(err) {
		return uuid.Nil, errors.Wrapf(err, "failed to read id file %s", idFile)
	}

	id := newID(log)

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return uuid.Nil, errors.Wrapf(err, "failed to create data dir %s", dataDir)
	}
	if err := os.WriteFile(idFile, []byte(id.String()+"\n"), 0600); err != nil {
		return uuid.Nil, errors.Wrapf(err, "failed to persist id file %s", idFile)
	}

	log.Infof("created agent id %s", id)
	return id, nil
}

func newID(log *logger.Logger) uuid.UUID {
	mid, err := machineid.ProtectedID(appKey)
	if err != nil {
		log.Debugf("machine id unavailable (%v), using random id", err)
		return uuid.New()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(mid))
}
