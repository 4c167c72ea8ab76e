/*
Package config loads connection and cache settings.

A configuration file groups connections by name:

	databases:
	  default:
	    type: sqlite
	    dsn: ./app.db
	  items:
	    type: sdb
	    region: us-east-1
	    key-attribute: itemName
	    token-ttl: 180s
	cache:
	  type: redis
	  addr: localhost:6379
	  prefix: "modelstore:"

The file path comes from MODELSTORE_CONFIG, and a .env file in the working
directory is loaded first. MODELSTORE_DB_<GROUP>_DSN overrides the DSN of a
group and MODELSTORE_CACHE_ADDR the cache address.
*/
package config
