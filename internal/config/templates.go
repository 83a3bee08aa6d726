package config

import (
	"fmt"
	"os"
)

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(Template), 0o600)
}

const Template = `app = "jsonlctl"
delimiter = "\n"
max_buffer_size = 1048576
preserve_whitespace = false
# drop | flush | error
end_policy = "drop"
chunk_size = 32768
high_water_mark = 16384
metrics_addr = "127.0.0.1:9464"
listen = "127.0.0.1:7400"
connect = ""

[tls]
enabled = false
mutual = false
cert_file = ""
key_file = ""
ca_file = ""
server_name = ""
insecure_skip_verify = false
`
