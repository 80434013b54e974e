package remote

import (
	"fmt"
	"io/ioutil"
	"net"
	"os"

	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/logger"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// authMethods collects the public key signers from the configured key files
// and, if enabled, the running ssh-agent. Missing or unparsable key files are
// skipped. The returned closer releases the agent connection.
func authMethods(conf config.SSH, log *logger.Logger) ([]ssh.AuthMethod, func() error, error) {
	var signers []ssh.Signer
	for _, file := range conf.KeyFiles {
		buffer, err := ioutil.ReadFile(file)
		if err != nil {
			continue
		}
		key, err := ssh.ParsePrivateKey(buffer)
		if err != nil {
			log.Debug("skipping unusable key file", "file", file, "error", err)
			continue
		}
		signers = append(signers, key)
	}

	var auths []ssh.AuthMethod
	if len(signers) > 0 {
		auths = append(auths, ssh.PublicKeys(signers...))
	}

	closer := func() error { return nil }
	if conf.UseAgent {
		if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
			conn, err := net.Dial("unix", sock)
			if err != nil {
				log.Debug("ssh-agent unavailable", "error", err)
			} else {
				auths = append(auths, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
				closer = conn.Close
			}
		}
	}

	if len(auths) == 0 {
		return nil, closer, fmt.Errorf("no usable ssh credentials: tried key files %v and ssh-agent", conf.KeyFiles)
	}
	return auths, closer, nil
}

// hostKeyCallback verifies host keys against the configured known_hosts
// file. Without one, any host key is accepted.
func hostKeyCallback(conf config.SSH) (ssh.HostKeyCallback, error) {
	if conf.KnownHostsFile == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(conf.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("loading known hosts %s: %w", conf.KnownHostsFile, err)
	}
	return cb, nil
}
