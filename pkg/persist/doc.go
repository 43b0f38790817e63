/*
Package persist saves and loads small fixed-size records on non-volatile
storage.

A record is identified by a 32-bit signature and a 16-bit offset. Two
adapters share the same Save/Load contract:

  - FlatAdapter writes [signature][length][checksum][payload] at the offset
    of a flat byte store (an EEPROM sector).
  - KVAdapter writes [length][checksum][payload] as one blob in a key-value
    namespace under the key DeriveKey(signature, offset).

Load only copies into the caller's buffer after the stored record's length
(and, for flat stores, signature) match and the checksum verifies, so a
failed Load leaves the destination as it was.

	adapter := persist.NewKVAdapter(store.NewMemoryKVStore(0), persist.KVAdapterConfig{})
	settings := persist.NewBinding[Settings](adapter, codec.ParseSignature("CFG1"), 0)
	if err := settings.Save(&current, persist.LogSilent); err != nil {
		return err
	}

The KV adapter erases its whole namespace when it runs out of space; see
KVAdapter.
*/
package persist
